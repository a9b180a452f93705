package telemetry

import (
	"errors"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned when a score is requested before the first fit.
var ErrNotFitted = errors.New("telemetry: outlier model not fitted")

// OutlierModel is the learned half of the dual-mode detector. One shared
// instance scores values from every sensor; it is injected into the Agent
// at construction. Fit replaces the model state wholesale (full retrain on
// the pooled sample set). Decision follows the usual convention: negative
// means outlier, and the magnitude is the anomaly score.
//
// Implementations must allow concurrent Decision calls but serialize Fit
// against everything else.
type OutlierModel interface {
	Fit(samples []float64) error
	Decision(value float64) (float64, error)
	Fitted() bool
	TrainedOn() int
}

// GaussianOutlierModel standardizes values against the pooled sample
// distribution and flags those beyond the (1-contamination) quantile of the
// training scores. Single writer (Fit), multiple readers (Decision).
type GaussianOutlierModel struct {
	contamination float64

	mu        sync.RWMutex
	fitted    bool
	trainedOn int
	mean      float64
	std       float64
	offset    float64
}

// NewGaussianOutlierModel builds an unfitted model. Contamination outside
// (0,1) falls back to 0.10.
func NewGaussianOutlierModel(contamination float64) *GaussianOutlierModel {
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.10
	}
	return &GaussianOutlierModel{contamination: contamination}
}

// Fit retrains the model on the full pooled sample set.
func (m *GaussianOutlierModel) Fit(samples []float64) error {
	if len(samples) == 0 {
		return errors.New("telemetry: empty training set")
	}

	mean, std := stat.MeanStdDev(samples, nil)
	if std == 0 || math.IsNaN(std) {
		// constant training data: any deviation is an outlier
		std = 1
	}

	scores := make([]float64, len(samples))
	for i, v := range samples {
		scores[i] = math.Abs((v - mean) / std)
	}
	sort.Float64s(scores)
	offset := stat.Quantile(1-m.contamination, stat.Empirical, scores, nil)

	m.mu.Lock()
	m.mean, m.std, m.offset = mean, std, offset
	m.trainedOn = len(samples)
	m.fitted = true
	m.mu.Unlock()
	return nil
}

// Decision returns offset - |z|: negative classifies value as an outlier.
func (m *GaussianOutlierModel) Decision(value float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.fitted {
		return 0, ErrNotFitted
	}
	z := math.Abs((value - m.mean) / m.std)
	d := m.offset - z
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, errors.New("telemetry: non-finite decision value")
	}
	return d, nil
}

// Fitted reports whether the model has been trained at least once.
func (m *GaussianOutlierModel) Fitted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fitted
}

// TrainedOn returns the size of the last training set.
func (m *GaussianOutlierModel) TrainedOn() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trainedOn
}
