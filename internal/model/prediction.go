package model

// FailurePrediction is one record emitted by the external model-serving
// collaborator. Read-only input to the aggregator.
type FailurePrediction struct {
	ID                 string    `json:"id"`
	StructureID        string    `json:"structure_id"`
	FailureProbability float64   `json:"failure_probability"`
	FailureRisk        RiskLevel `json:"failure_risk"`
	Predicted24h       bool      `json:"predicted_within_24h"`
	Confidence         float64   `json:"confidence_score"`
	// ContributingFactors keeps the order the collaborator supplied
	// (document order when the factor map arrived JSON-encoded).
	ContributingFactors []string `json:"contributing_factors"`
	ModelVersion        string   `json:"model_version"`
	PredictedAt         string   `json:"predicted_at"`
}

// AnomalyEvent is one ML anomaly-detection record. The aggregator consumes
// the flag/score/timestamp fields; the view composer also renders ID, value
// and model version when present.
type AnomalyEvent struct {
	ID           string  `json:"id"`
	SensorID     string  `json:"sensor_id"`
	IsAnomaly    bool    `json:"is_anomaly"`
	AnomalyScore float64 `json:"anomaly_score"`
	ReadingType  string  `json:"reading_type"`
	Value        float64 `json:"value"`
	ModelVersion string  `json:"model_version"`
	DetectedAt   string  `json:"detected_at"`
}

// StructureVerdict is the aggregator's per-structure risk conclusion.
// Always recomputed, never stored.
type StructureVerdict struct {
	StructureID         string    `json:"structure_id"`
	StructureName       string    `json:"structure_name"`
	Lat                 float64   `json:"lat"`
	Lng                 float64   `json:"lng"`
	FailureRisk         RiskLevel `json:"failure_risk"`
	FailureProbability  float64   `json:"failure_probability"`
	PredictedWithin24h  bool      `json:"predicted_within_24h"`
	ConfidenceScore     float64   `json:"confidence_score"`
	ContributingFactors []string  `json:"contributing_factors"`
	AnomalyCount        int       `json:"anomaly_count"`
	LastAnomalyTime     string    `json:"last_anomaly_time,omitempty"`
	ModelVersion        string    `json:"model_version"`
	Timestamp           string    `json:"timestamp"`
}

// CompositeRisk is the outcome of the standalone composite scoring path.
type CompositeRisk struct {
	Risk         RiskLevel `json:"risk"`
	Probability  float64   `json:"probability"`
	Predicted24h bool      `json:"predicted_24h"`
	AnomalyCount int       `json:"anomaly_count"`
}
