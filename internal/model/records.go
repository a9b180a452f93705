package model

// Collaborator collections joined by the view composer. Absent optional
// values are represented as pointers or empty strings, never sentinel
// magic numbers.

// Structure is one monitored asset (bridge, pipeline segment, grid node...).
type Structure struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	StructureType  string  `json:"structure_type"`
	RiskScore      float64 `json:"risk_score"`
	ConditionScore float64 `json:"condition_score"`
	Zone           string  `json:"zone,omitempty"`
}

// Sensor is a registered device attached to a structure.
type Sensor struct {
	ID            string  `json:"id"`
	SensorCode    string  `json:"sensor_code"`
	StructureID   string  `json:"structure_id"`
	SensorType    string  `json:"sensor_type"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	IsActive      bool    `json:"is_active"`
	LastHeartbeat string  `json:"last_heartbeat,omitempty"`
}

// UtilityAnomaly is a rule-confirmed anomaly persisted by the ingest side.
type UtilityAnomaly struct {
	ID            string   `json:"id"`
	SensorID      string   `json:"sensor_id"`
	AnomalyType   string   `json:"anomaly_type"`
	Severity      Severity `json:"severity"`
	DetectedValue *float64 `json:"detected_value,omitempty"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	DetectedAt    string   `json:"detected_at"`
	IsResolved    bool     `json:"is_resolved"`
}

// RoadInfo is the nested road metadata a pothole record may carry.
type RoadInfo struct {
	RoadName string `json:"road_name"`
}

// Pothole is one detected road defect.
type Pothole struct {
	ID            string    `json:"id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	PriorityLevel string    `json:"priority_level"`
	PriorityScore *float64  `json:"priority_score,omitempty"`
	TicketID      string    `json:"ticket_id,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	RoadInfo      *RoadInfo `json:"road_info,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty"`
}

// Worker is the crew member a ticket may be assigned to.
type Worker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ticket groups potholes into one work order.
type Ticket struct {
	ID             string   `json:"id"`
	TicketNumber   string   `json:"ticket_number"`
	Status         string   `json:"status"`
	PotholeIDs     []string `json:"potholes,omitempty"`
	AssignedWorker *Worker  `json:"assigned_worker,omitempty"`
	EstimatedETA   string   `json:"estimated_eta,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// MaintenanceLog is one recorded intervention on a structure.
type MaintenanceLog struct {
	ID          string  `json:"id"`
	StructureID string  `json:"structure_id"`
	LogType     string  `json:"log_type"`
	Description string  `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PerformedAt string  `json:"performed_at"`
}

// FailureEvent is a confirmed structural failure.
type FailureEvent struct {
	ID          string   `json:"id"`
	StructureID string   `json:"structure_id"`
	FailureType string   `json:"failure_type"`
	Severity    Severity `json:"severity"`
	OccurredAt  string   `json:"occurred_at"`
	ResolvedAt  string   `json:"resolved_at,omitempty"`
}

// WeatherSnapshot is the already-shaped weather overlay supplied by the
// weather collaborator.
type WeatherSnapshot struct {
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
