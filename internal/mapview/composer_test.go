package mapview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbellini/infrawatch/internal/model"
)

func fixedComposer() *Composer {
	return &Composer{now: func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}}
}

func fullInput() Input {
	score := 0.7
	val := 42.0
	return Input{
		Structures: []model.Structure{
			{ID: "b-1", Name: "North Bridge", Latitude: 12.9, Longitude: 77.6, StructureType: "BRIDGE", RiskScore: 0.2, ConditionScore: 0.8},
			{ID: "b-2", Latitude: 13.0, Longitude: 77.7},
		},
		Sensors: []model.Sensor{
			{ID: "sensor-aaaa-1111", SensorCode: "VIB-01", StructureID: "b-1", SensorType: "VIBRATION_SENSOR", Latitude: 12.9, Longitude: 77.6, IsActive: true, LastHeartbeat: "2026-08-30T11:58:00Z"},
			{ID: "sensor-bbbb-2222", StructureID: "b-2", SensorType: "PRESSURE_SENSOR", Latitude: 13.0, Longitude: 77.7, IsActive: true, LastHeartbeat: "2026-08-30T11:00:00Z"},
			{ID: "sensor-cccc-3333", StructureID: "b-2", Latitude: 13.1, Longitude: 77.8},
		},
		Telemetry: []model.CleanedReading{
			{SensorID: "sensor-aaaa-1111", Value: 3, ReadingType: "vibration", Timestamp: "2026-08-30T11:50:00Z"},
			{SensorID: "sensor-aaaa-1111", Value: 4, ReadingType: "vibration", Timestamp: "2026-08-30T11:55:00Z"},
		},
		Anomalies: []model.UtilityAnomaly{
			{ID: "an-1", SensorID: "sensor-aaaa-1111", AnomalyType: "SPIKE", Severity: model.SeverityHigh, DetectedValue: &val, DetectedAt: "2026-08-30T11:00:00Z"},
			{ID: "an-2", SensorID: "sensor-bbbb-2222", Latitude: 1, Longitude: 1, DetectedAt: "2026-08-30T10:00:00Z", IsResolved: true},
		},
		MLAnomalies: []model.AnomalyEvent{
			{ID: "ml-1", SensorID: "sensor-aaaa-1111", IsAnomaly: true, AnomalyScore: 0.9, ReadingType: "vibration", Value: 9, DetectedAt: "2026-08-30T11:30:00Z", ModelVersion: "g-1"},
			{ID: "ml-2", SensorID: "sensor-aaaa-1111", IsAnomaly: false},
		},
		Potholes: []model.Pothole{
			{ID: "p-1", Latitude: 12.95, Longitude: 77.65, PriorityLevel: "CRITICAL", PriorityScore: &score},
			{ID: "p-2", Latitude: 12.96, Longitude: 77.66},
		},
		Tickets: []model.Ticket{
			{ID: "ticket-long-id-1", Status: "IN_PROGRESS", PotholeIDs: []string{"p-1", "p-2"}, AssignedWorker: &model.Worker{ID: "w-1", Name: "Dana"}},
			{ID: "t-2", TicketNumber: "TK-002", Status: "RESOLVED"},
		},
		Maintenance: []model.MaintenanceLog{
			{ID: "m-1", StructureID: "b-1", LogType: "INSPECTION", PerformedAt: "2026-08-29T09:00:00Z"},
		},
		Failures: []model.FailureEvent{
			{ID: "f-1", StructureID: "b-1", FailureType: "CRACK", Severity: model.SeverityCritical, OccurredAt: "2026-08-28T00:00:00Z"},
			{ID: "f-2", StructureID: "b-2", OccurredAt: "2026-08-20T00:00:00Z", ResolvedAt: "2026-08-21T00:00:00Z"},
		},
		Predictions: []model.FailurePrediction{
			{ID: "pr-1", StructureID: "b-1", FailureProbability: 0.82, FailureRisk: model.RiskCritical, Predicted24h: true, PredictedAt: "2026-08-30T11:45:00Z"},
		},
		Weather: &model.WeatherSnapshot{City: "Bengaluru", FloodRisk: "HIGH", Condition: "RAIN"},
	}
}

func TestOrchestrateIdempotent(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	p1 := c.Orchestrate(in)
	p2 := c.Orchestrate(in)

	assert.Equal(t, p1, p2, "same input and clock must yield identical payloads")
	assert.Equal(t, "2026-08-30T12:00:00Z", p1.GeneratedAt)
}

func TestOrchestrateEmptyInput(t *testing.T) {
	c := fixedComposer()

	p := c.Orchestrate(Input{})

	assert.NotNil(t, p.Layers.Structures)
	assert.Empty(t, p.Layers.Structures)
	assert.NotNil(t, p.Layers.Heatmap)
	assert.Nil(t, p.Layers.Weather)
	assert.Equal(t, 0, p.Summary["total_structures"])
	assert.Equal(t, "UNKNOWN", p.Summary["weather_risk"])
}

func TestBuildStructuresPredictionOverride(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	out := c.BuildStructures(in.Structures, in.Predictions)
	require.Len(t, out, 2)

	assert.Equal(t, 0.82, out[0].RiskScore, "prediction overrides static risk score")
	assert.Equal(t, model.RiskCritical, out[0].FailureRisk)

	assert.Equal(t, "Unknown Structure", out[1].Name)
	assert.Equal(t, "UNKNOWN", out[1].StructureType)
	assert.Equal(t, model.RiskLow, out[1].FailureRisk, "no prediction defaults to LOW")
}

func TestBuildSensorsLatestTelemetryAndStatus(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	out := c.BuildSensors(in.Sensors, in.Telemetry, c.now().UTC())
	require.Len(t, out, 3)

	active := out[0]
	assert.Equal(t, "ACTIVE", active.Status)
	require.NotNil(t, active.LatestValue)
	assert.Equal(t, 4.0, *active.LatestValue, "lexicographically latest timestamp wins")
	require.NotNil(t, active.LatestReadingType)
	assert.Equal(t, "vibration", *active.LatestReadingType)

	stale := out[1]
	assert.Equal(t, "STALE", stale.Status, "heartbeat older than the staleness window")
	assert.Nil(t, stale.LatestValue)
	assert.Nil(t, stale.LatestReadingType)

	inactive := out[2]
	assert.Equal(t, "INACTIVE", inactive.Status)
	assert.Equal(t, "sensor-c", inactive.SensorCode, "missing code falls back to the short id")
	assert.Equal(t, "UNKNOWN", inactive.SensorType)
}

func TestBuildAnomaliesBorrowsSensorCoordinates(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	out := c.BuildAnomalies(in.Anomalies, in.Sensors)
	require.Len(t, out, 2)

	assert.Equal(t, 12.9, out[0].Lat)
	assert.Equal(t, 77.6, out[0].Lng)
	assert.Equal(t, model.SeverityHigh, out[0].Severity)

	assert.Equal(t, 1.0, out[1].Lat, "record coordinates kept when present")
	assert.Equal(t, "UNKNOWN", out[1].AnomalyType)
	assert.Equal(t, model.SeverityLow, out[1].Severity)
}

func TestBuildMLAnomaliesFiltersNonAnomalies(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	out := c.BuildMLAnomalies(in.MLAnomalies, in.Sensors)
	require.Len(t, out, 1)
	assert.Equal(t, "ml-1", out[0].ID)
	assert.Equal(t, 12.9, out[0].Lat)
	assert.Equal(t, 0.9, out[0].AnomalyScore)
}

func TestBuildTicketsDefaults(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	out := c.BuildTickets(in.Tickets)
	require.Len(t, out, 2)

	assert.Equal(t, "ticket-l", out[0].TicketNumber, "missing number falls back to the short id")
	assert.Equal(t, 2, out[0].PotholeCount)
	assert.Equal(t, "Dana", out[0].AssignedWorker)

	assert.Equal(t, "TK-002", out[1].TicketNumber)
	assert.Zero(t, out[1].PotholeCount)
}

func TestBuildTicketsStatusDefault(t *testing.T) {
	c := fixedComposer()

	out := c.BuildTickets([]model.Ticket{{ID: "t-1"}})
	require.Len(t, out, 1)
	assert.Equal(t, "DETECTED", out[0].Status)
}

func TestBuildFailuresResolution(t *testing.T) {
	c := fixedComposer()
	in := fullInput()

	out := c.BuildFailures(in.Failures, in.Structures)
	require.Len(t, out, 2)
	assert.False(t, out[0].IsResolved)
	assert.Equal(t, 12.9, out[0].Lat)
	assert.True(t, out[1].IsResolved)
	assert.Equal(t, "UNKNOWN", out[1].FailureType)
}

func TestBuildHeatmapNormalization(t *testing.T) {
	c := fixedComposer()
	sensors := []model.Sensor{
		{ID: "s-1", Latitude: 1, Longitude: 1},
		{ID: "s-2", Latitude: 2, Longitude: 2},
		{ID: "s-3", Latitude: 3, Longitude: 3},
	}
	telemetry := []model.CleanedReading{
		{SensorID: "s-1", Value: 10, ReadingType: "pressure"},
		{SensorID: "s-2", Value: 20, ReadingType: "pressure"},
		{SensorID: "s-3", Value: 30, ReadingType: "pressure"},
	}

	out := c.BuildHeatmap(telemetry, sensors)
	require.Len(t, out, 3)
	assert.Equal(t, 0.0, out[0].Intensity)
	assert.Equal(t, 0.5, out[1].Intensity)
	assert.Equal(t, 1.0, out[2].Intensity)
}

func TestBuildHeatmapConstantBatch(t *testing.T) {
	c := fixedComposer()
	sensors := []model.Sensor{{ID: "s-1", Latitude: 1, Longitude: 1}}
	telemetry := []model.CleanedReading{
		{SensorID: "s-1", Value: 5},
		{SensorID: "s-1", Value: 5},
	}

	out := c.BuildHeatmap(telemetry, sensors)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.Equal(t, 0.0, p.Intensity, "constant batch normalizes to zero")
		assert.Equal(t, "UNKNOWN", p.ReadingType)
	}
}

func TestBuildHeatmapDropsUnplaceablePoints(t *testing.T) {
	c := fixedComposer()
	sensors := []model.Sensor{
		{ID: "s-zero"}, // zero coordinates
		{ID: "s-ok", Latitude: 1, Longitude: 1},
	}
	telemetry := []model.CleanedReading{
		{SensorID: "s-unknown", Value: 1},
		{SensorID: "s-zero", Value: 2},
		{SensorID: "s-ok", Value: 3},
	}

	out := c.BuildHeatmap(telemetry, sensors)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Lat)
}

func TestBuildHeatmapRounding(t *testing.T) {
	c := fixedComposer()
	sensors := []model.Sensor{
		{ID: "s-1", Latitude: 1, Longitude: 1},
		{ID: "s-2", Latitude: 2, Longitude: 2},
		{ID: "s-3", Latitude: 3, Longitude: 3},
	}
	telemetry := []model.CleanedReading{
		{SensorID: "s-1", Value: 0},
		{SensorID: "s-2", Value: 1},
		{SensorID: "s-3", Value: 3},
	}

	out := c.BuildHeatmap(telemetry, sensors)
	require.Len(t, out, 3)
	assert.Equal(t, 0.333, out[1].Intensity)
}

func TestSummaryCounters(t *testing.T) {
	c := fixedComposer()
	p := c.Orchestrate(fullInput())

	want := map[string]any{
		"total_structures":     2,
		"total_sensors":        3,
		"active_sensors":       1,
		"total_anomalies":      2,
		"unresolved_anomalies": 1,
		"ml_anomalies":         1,
		"total_potholes":       2,
		"critical_potholes":    1,
		"total_tickets":        2,
		"pending_tickets":      1,
		"maintenance_logs":     1,
		"failure_events":       2,
		"unresolved_failures":  1,
		"high_risk_structures": 1,
		"predictions_24h":      1,
		"weather_risk":         "HIGH",
	}
	assert.Equal(t, want, p.Summary)
}

func TestWeatherLayerPassthrough(t *testing.T) {
	c := fixedComposer()
	p := c.Orchestrate(fullInput())

	require.NotNil(t, p.Layers.Weather)
	assert.Equal(t, "Bengaluru", p.Layers.Weather.City)
	assert.Equal(t, "HIGH", p.Layers.Weather.FloodRisk)
}
