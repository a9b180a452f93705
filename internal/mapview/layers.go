// Package mapview implements the third pipeline stage: composing the
// independently sourced collections into one render-ready map payload.
package mapview

import "github.com/mbellini/infrawatch/internal/model"

// StructureLayer is one structure on the map, with the static risk score
// overridden by the latest dynamic failure probability when one exists.
type StructureLayer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Lat            float64         `json:"lat"`
	Lng            float64         `json:"lng"`
	StructureType  string          `json:"structure_type"`
	RiskScore      float64         `json:"risk_score"`
	ConditionScore float64         `json:"condition_score"`
	FailureRisk    model.RiskLevel `json:"failure_risk"`
	Zone           string          `json:"zone,omitempty"`
}

// SensorLayer is one sensor with its most recent telemetry joined in.
type SensorLayer struct {
	ID                string   `json:"id"`
	SensorCode        string   `json:"sensor_code"`
	Lat               float64  `json:"lat"`
	Lng               float64  `json:"lng"`
	SensorType        string   `json:"sensor_type"`
	Status            string   `json:"status"` // ACTIVE, INACTIVE, STALE
	LastHeartbeat     string   `json:"last_heartbeat,omitempty"`
	StructureID       string   `json:"structure_id,omitempty"`
	LatestValue       *float64 `json:"latest_value"`
	LatestReadingType *string  `json:"latest_reading_type"`
}

// AnomalyLayer is one rule-confirmed utility anomaly.
type AnomalyLayer struct {
	ID          string         `json:"id"`
	Lat         float64        `json:"lat"`
	Lng         float64        `json:"lng"`
	AnomalyType string         `json:"anomaly_type"`
	Severity    model.Severity `json:"severity"`
	DetectedAt  string         `json:"detected_at"`
	SensorID    string         `json:"sensor_id,omitempty"`
	Value       *float64       `json:"value"`
	IsResolved  bool           `json:"is_resolved"`
}

// MLAnomalyLayer is one learned-model detection; only true anomalies appear.
type MLAnomalyLayer struct {
	ID           string  `json:"id"`
	SensorID     string  `json:"sensor_id"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	ReadingType  string  `json:"reading_type"`
	Value        float64 `json:"value"`
	AnomalyScore float64 `json:"anomaly_score"`
	DetectedAt   string  `json:"detected_at"`
	ModelVersion string  `json:"model_version"`
}

// PotholeLayer is one road defect.
type PotholeLayer struct {
	ID            string   `json:"id"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Priority      string   `json:"priority"`
	PriorityScore *float64 `json:"priority_score"`
	TicketID      string   `json:"ticket_id,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	RoadName      string   `json:"road_name,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// TicketLayer is one work order with its assigned worker joined in.
type TicketLayer struct {
	ID             string `json:"id"`
	TicketNumber   string `json:"ticket_number"`
	Status         string `json:"status"`
	PotholeCount   int    `json:"pothole_count"`
	AssignedWorker string `json:"assigned_worker,omitempty"`
	ETA            string `json:"eta,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// MaintenanceLayer is one maintenance log with structure coordinates joined.
type MaintenanceLayer struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	LogType     string  `json:"log_type"`
	Description string  `json:"description,omitempty"`
	PerformedAt string  `json:"performed_at"`
	StructureID string  `json:"structure_id"`
}

// FailureEventLayer is one structural failure event.
type FailureEventLayer struct {
	ID          string         `json:"id"`
	StructureID string         `json:"structure_id"`
	Lat         float64        `json:"lat"`
	Lng         float64        `json:"lng"`
	FailureType string         `json:"failure_type"`
	Severity    model.Severity `json:"severity"`
	OccurredAt  string         `json:"occurred_at"`
	IsResolved  bool           `json:"is_resolved"`
}

// PredictionLayer is one raw ML prediction placed at its structure.
type PredictionLayer struct {
	ID                 string          `json:"id"`
	StructureID        string          `json:"structure_id"`
	Lat                float64         `json:"lat"`
	Lng                float64         `json:"lng"`
	FailureProbability float64         `json:"failure_probability"`
	FailureRisk        model.RiskLevel `json:"failure_risk"`
	PredictedWithin24h bool            `json:"predicted_within_24h"`
	PredictedAt        string          `json:"predicted_at"`
}

// WeatherLayer is the single weather overlay.
type WeatherLayer struct {
	City          string  `json:"city"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	RainIntensity string  `json:"rain_intensity"`
	FloodRisk     string  `json:"flood_risk"`
	Visibility    string  `json:"visibility"`
	Temperature   float64 `json:"temperature"`
	Condition     string  `json:"condition"`
	Timestamp     string  `json:"timestamp"`
}

// HeatmapPoint carries one min-max normalized telemetry intensity.
type HeatmapPoint struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Intensity   float64 `json:"intensity"`
	ReadingType string  `json:"reading_type"`
}

// Layers is the layers object of the payload. Every list is always present
// (empty, not null) so the schema stays stable for downstream consumers.
type Layers struct {
	Structures  []StructureLayer    `json:"structures"`
	Sensors     []SensorLayer       `json:"sensors"`
	Anomalies   []AnomalyLayer      `json:"anomalies"`
	MLAnomalies []MLAnomalyLayer    `json:"mlAnomalies"`
	Potholes    []PotholeLayer      `json:"potholes"`
	Tickets     []TicketLayer       `json:"tickets"`
	Maintenance []MaintenanceLayer  `json:"maintenance"`
	Failures    []FailureEventLayer `json:"failures"`
	Predictions []PredictionLayer   `json:"predictions"`
	Heatmap     []HeatmapPoint      `json:"heatmap"`
	Weather     *WeatherLayer       `json:"weather"`
}

// Payload is the sole externally observable artifact of the composer.
type Payload struct {
	Layers      Layers         `json:"layers"`
	Summary     map[string]any `json:"summary"`
	GeneratedAt string         `json:"generatedAt"`
}
