package model

// RawReading is a single telemetry sample as produced by a physical or
// simulated sensor. Timestamps stay RFC3339 strings end-to-end: the view
// composer orders telemetry lexicographically.
type RawReading struct {
	SensorID    string  `json:"sensor_id"`
	StructureID string  `json:"structure_id"`
	SensorType  string  `json:"sensor_type"`
	ReadingType string  `json:"reading_type"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	Timestamp   string  `json:"timestamp"`
}

// CleanedReading is a RawReading after bounding and anomaly scoring.
// Created once by the detector, never mutated afterwards.
type CleanedReading struct {
	SensorID     string   `json:"sensor_id"`
	StructureID  string   `json:"structure_id"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	ReadingType  string   `json:"reading_type"`
	Value        float64  `json:"value"`
	Unit         string   `json:"unit"`
	Anomaly      bool     `json:"anomaly"`
	AnomalyScore float64  `json:"anomaly_score"`
	Severity     Severity `json:"severity"`
	Timestamp    string   `json:"timestamp"`
	SensorType   string   `json:"sensor_type"`
}
