// Package telemetry implements the first pipeline stage: per-reading
// validation, bounding and dual-mode (rule + learned) anomaly scoring with
// bounded per-sensor memory.
package telemetry

import (
	"log"
	"math"
	"sync"

	"github.com/mbellini/infrawatch/internal/adapter"
	"github.com/mbellini/infrawatch/internal/model"
)

// Config tunes the detector. Zero values fall back to the defaults below.
type Config struct {
	Thresholds map[string]Thresholds
	// HistorySize bounds the per-sensor value buffer (FIFO eviction).
	HistorySize int
	// MinTrainingSamples is the pooled size needed before the learned
	// check participates at all.
	MinTrainingSamples int
	// RetrainEvery triggers a full refit each time the pooled sample
	// count is an exact multiple of it.
	RetrainEvery int
}

func (c Config) withDefaults() Config {
	if c.Thresholds == nil {
		c.Thresholds = DefaultThresholds
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 100
	}
	if c.MinTrainingSamples <= 0 {
		c.MinTrainingSamples = 50
	}
	if c.RetrainEvery <= 0 {
		c.RetrainEvery = 50
	}
	return c
}

// Agent cleans and scores raw readings. It owns the only mutable state in
// the pipeline: the per-sensor history buffers and the shared outlier model.
// Histories are guarded by mu; the model carries its own reader/writer lock.
type Agent struct {
	cfg   Config
	model OutlierModel

	mu      sync.Mutex
	history map[string][]float64
}

// NewAgent builds the detector around an injected outlier model.
// A nil model gets the default Gaussian one.
func NewAgent(cfg Config, m OutlierModel) *Agent {
	if m == nil {
		m = NewGaussianOutlierModel(0.10)
	}
	return &Agent{
		cfg:     cfg.withDefaults(),
		model:   m,
		history: make(map[string][]float64),
	}
}

// Clean validates and bounds a raw value. The second result is false when
// the value is implausible (outside [min*0.5, max*1.5]) and must be dropped;
// otherwise the value is clamped into [min, max].
func (a *Agent) Clean(value float64, sensorType string) (float64, bool) {
	t := a.cfg.cleanRangeFor(sensorType)
	if value < t.Min*0.5 || value > t.Max*1.5 {
		return 0, false
	}
	return math.Max(t.Min, math.Min(value, t.Max)), true
}

// DetectAnomaly appends value to the sensor's bounded history, runs the rule
// check against the critical threshold, and, once the pooled history is big
// enough, the learned check against the shared model. The flags combine with
// an inclusive OR. Model failures degrade to rule-only detection.
func (a *Agent) DetectAnomaly(sensorID string, value float64, sensorType string) (bool, float64) {
	pooled := a.record(sensorID, value)

	ruleFlag := value >= a.cfg.criticalFor(sensorType).Critical

	learnedFlag := false
	score := 0.0
	if len(pooled) >= a.cfg.MinTrainingSamples {
		if !a.model.Fitted() || len(pooled)%a.cfg.RetrainEvery == 0 {
			if err := a.model.Fit(pooled); err != nil {
				log.Printf("outlier model fit failed (%d samples): %v", len(pooled), err)
			}
		}
		if d, err := a.model.Decision(value); err == nil {
			learnedFlag = d < 0
			score = math.Abs(d)
		} else {
			log.Printf("outlier model score failed for sensor %s: %v", sensorID, err)
		}
	}

	return ruleFlag || learnedFlag, score
}

// record appends to the sensor history, evicts beyond capacity, and returns
// a snapshot of the pooled sample set so fitting happens outside the lock.
func (a *Agent) record(sensorID string, value float64) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := append(a.history[sensorID], value)
	if n := len(h); n > a.cfg.HistorySize {
		h = h[n-a.cfg.HistorySize:]
	}
	a.history[sensorID] = h

	total := 0
	for _, hh := range a.history {
		total += len(hh)
	}
	pooled := make([]float64, 0, total)
	for _, hh := range a.history {
		pooled = append(pooled, hh...)
	}
	return pooled
}

// SeverityFor grades an anomalous value against the critical threshold.
func (a *Agent) SeverityFor(value float64, sensorType string) model.Severity {
	critical := a.cfg.criticalFor(sensorType).Critical
	switch {
	case value >= critical:
		return model.SeverityCritical
	case value >= critical*0.8:
		return model.SeverityHigh
	case value >= critical*0.6:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// Process composes clean -> detect -> severity for one canonical reading.
// Nil means the reading was rejected.
func (a *Agent) Process(raw model.RawReading) *model.CleanedReading {
	cleaned, ok := a.Clean(raw.Value, raw.SensorType)
	if !ok {
		return nil
	}

	isAnomaly, score := a.DetectAnomaly(raw.SensorID, cleaned, raw.SensorType)

	severity := model.SeverityLow
	if isAnomaly {
		severity = a.SeverityFor(cleaned, raw.SensorType)
	}

	return &model.CleanedReading{
		SensorID:     raw.SensorID,
		StructureID:  raw.StructureID,
		Lat:          raw.Latitude,
		Lng:          raw.Longitude,
		ReadingType:  raw.ReadingType,
		Value:        cleaned,
		Unit:         raw.Unit,
		Anomaly:      isAnomaly,
		AnomalyScore: score,
		Severity:     severity,
		Timestamp:    raw.Timestamp,
		SensorType:   raw.SensorType,
	}
}

// ProcessRecord normalizes a loosely-keyed raw record and processes it.
// Nil means a required field was absent or cleaning rejected the value.
func (a *Agent) ProcessRecord(m map[string]any) *model.CleanedReading {
	raw, err := adapter.RawReading(m)
	if err != nil {
		return nil
	}
	return a.Process(raw)
}

// HistoryLen reports the current buffer length for one sensor.
func (a *Agent) HistoryLen(sensorID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history[sensorID])
}
