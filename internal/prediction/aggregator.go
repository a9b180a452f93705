// Package prediction implements the second pipeline stage: reducing ML
// failure predictions and anomaly events into one ranked, explainable
// verdict per structure.
package prediction

import (
	"math"
	"sort"
	"time"

	"github.com/mbellini/infrawatch/internal/model"
)

// maxFactors caps the contributing-factor names copied into a verdict.
const maxFactors = 5

// Input carries the collections one aggregation pass works on. Sensors are
// optional: when present, anomalies are attributed to structures through
// sensor ownership; when absent, verdict anomaly fields stay zero/empty.
type Input struct {
	Predictions []model.FailurePrediction
	Anomalies   []model.AnomalyEvent
	Structures  []model.Structure
	Sensors     []model.Sensor
}

// Summary counts verdicts per risk level.
type Summary struct {
	Total        int `json:"total"`
	Critical     int `json:"critical"`
	High         int `json:"high"`
	Medium       int `json:"medium"`
	Low          int `json:"low"`
	Predicted24h int `json:"predicted_24h_count"`
}

// Aggregator is stateless: safe for concurrent use from any number of
// callers. The clock is injectable for tests.
type Aggregator struct {
	now func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// Aggregate groups predictions by structure, selects the most recent record
// per group as authoritative, and returns verdicts sorted by risk weight
// descending (stable for equal weights). Missing structure metadata yields
// empty name/coordinates, never an error.
func (ag *Aggregator) Aggregate(in Input) []model.StructureVerdict {
	structByID := make(map[string]model.Structure, len(in.Structures))
	for _, s := range in.Structures {
		structByID[s.ID] = s
	}

	// group, preserving first-seen structure order for a stable result
	grouped := make(map[string][]model.FailurePrediction)
	var order []string
	for _, p := range in.Predictions {
		if _, seen := grouped[p.StructureID]; !seen {
			order = append(order, p.StructureID)
		}
		grouped[p.StructureID] = append(grouped[p.StructureID], p)
	}

	anomalyCount, lastAnomaly := ag.attributeAnomalies(in.Anomalies, in.Sensors)

	ts := ag.now().UTC().Format(time.RFC3339)
	verdicts := make([]model.StructureVerdict, 0, len(grouped))
	for _, structID := range order {
		preds := grouped[structID]

		// latest by predictedAt; ties keep the earliest-seen record
		latest := preds[0]
		for _, p := range preds[1:] {
			if p.PredictedAt > latest.PredictedAt {
				latest = p
			}
		}

		factors := latest.ContributingFactors
		if len(factors) > maxFactors {
			factors = factors[:maxFactors]
		}

		structure := structByID[structID]
		name := structure.Name
		if name == "" {
			name = "Unknown Structure"
		}

		verdicts = append(verdicts, model.StructureVerdict{
			StructureID:         structID,
			StructureName:       name,
			Lat:                 structure.Latitude,
			Lng:                 structure.Longitude,
			FailureRisk:         latest.FailureRisk,
			FailureProbability:  round2(latest.FailureProbability),
			PredictedWithin24h:  latest.Predicted24h,
			ConfidenceScore:     round2(latest.Confidence),
			ContributingFactors: factors,
			AnomalyCount:        anomalyCount[structID],
			LastAnomalyTime:     lastAnomaly[structID],
			ModelVersion:        latest.ModelVersion,
			Timestamp:           ts,
		})
	}

	sort.SliceStable(verdicts, func(i, j int) bool {
		return verdicts[i].FailureRisk.Weight() > verdicts[j].FailureRisk.Weight()
	})
	return verdicts
}

// attributeAnomalies maps flagged anomalies onto structures via sensor
// ownership. Without sensor metadata there is nothing to join on and both
// maps stay empty.
func (ag *Aggregator) attributeAnomalies(anomalies []model.AnomalyEvent, sensors []model.Sensor) (map[string]int, map[string]string) {
	counts := make(map[string]int)
	last := make(map[string]string)
	if len(sensors) == 0 {
		return counts, last
	}
	owner := make(map[string]string, len(sensors))
	for _, s := range sensors {
		owner[s.ID] = s.StructureID
	}
	for _, a := range anomalies {
		if !a.IsAnomaly {
			continue
		}
		structID, ok := owner[a.SensorID]
		if !ok {
			continue
		}
		counts[structID]++
		if a.DetectedAt > last[structID] {
			last[structID] = a.DetectedAt
		}
	}
	return counts, last
}

// CompositeRisk scores a set of predictions without grouping: maximum
// probability, OR of the 24h flags, then a monotone escalation driven by the
// flagged-anomaly count. Escalation never downgrades.
func (ag *Aggregator) CompositeRisk(predictions []model.FailurePrediction, anomalies []model.AnomalyEvent) model.CompositeRisk {
	flagged := 0
	for _, a := range anomalies {
		if a.IsAnomaly {
			flagged++
		}
	}

	if len(predictions) == 0 {
		return model.CompositeRisk{Risk: model.RiskLow, AnomalyCount: flagged}
	}

	var maxProb float64
	any24h := false
	for _, p := range predictions {
		if p.FailureProbability > maxProb {
			maxProb = p.FailureProbability
		}
		any24h = any24h || p.Predicted24h
	}

	var risk model.RiskLevel
	switch {
	case maxProb >= 0.8 || any24h:
		risk = model.RiskCritical
	case maxProb >= 0.6:
		risk = model.RiskHigh
	case maxProb >= 0.4:
		risk = model.RiskMedium
	default:
		risk = model.RiskLow
	}

	if flagged >= 5 && risk == model.RiskMedium {
		risk = model.RiskHigh
	} else if flagged >= 10 && risk == model.RiskHigh {
		risk = model.RiskCritical
	}

	return model.CompositeRisk{
		Risk:         risk,
		Probability:  maxProb,
		Predicted24h: any24h,
		AnomalyCount: flagged,
	}
}

// FilterByThreshold keeps verdicts whose risk weight is at least the weight
// of minRisk.
func (ag *Aggregator) FilterByThreshold(verdicts []model.StructureVerdict, minRisk model.RiskLevel) []model.StructureVerdict {
	out := make([]model.StructureVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.FailureRisk.Weight() >= minRisk.Weight() {
			out = append(out, v)
		}
	}
	return out
}

// Summarize counts verdicts by risk level. Empty input yields an all-zero
// summary.
func (ag *Aggregator) Summarize(verdicts []model.StructureVerdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.FailureRisk {
		case model.RiskCritical:
			s.Critical++
		case model.RiskHigh:
			s.High++
		case model.RiskMedium:
			s.Medium++
		default:
			s.Low++
		}
		if v.PredictedWithin24h {
			s.Predicted24h++
		}
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
