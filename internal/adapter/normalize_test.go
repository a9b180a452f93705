package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbellini/infrawatch/internal/model"
)

func TestRawReadingAliases(t *testing.T) {
	got, err := RawReading(map[string]any{
		"sensorId":     "s-1",
		"structure_id": "b-1",
		"sensor_type":  "PRESSURE_SENSOR",
		"readingType":  "pressure",
		"value":        "55.5",
		"unit":         "bar",
		"lat":          12.9,
		"longitude":    77.6,
		"timestamp":    "2026-08-30T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.SensorID)
	assert.Equal(t, "b-1", got.StructureID)
	assert.Equal(t, "PRESSURE_SENSOR", got.SensorType)
	assert.Equal(t, "pressure", got.ReadingType)
	assert.Equal(t, 55.5, got.Value, "string numbers are parsed")
	assert.Equal(t, 12.9, got.Latitude)
	assert.Equal(t, 77.6, got.Longitude)
	assert.Equal(t, "2026-08-30T10:00:00Z", got.Timestamp)
}

func TestRawReadingSentinels(t *testing.T) {
	got, err := RawReading(map[string]any{"value": 1.0})
	require.NoError(t, err)
	assert.Equal(t, UnknownID, got.SensorID)
	assert.Equal(t, UnknownID, got.StructureID)
	assert.Equal(t, UnknownID, got.SensorType)
	assert.Equal(t, UnknownID, got.ReadingType)
	assert.NotEmpty(t, got.Timestamp, "missing timestamp is stamped now")
}

func TestRawReadingMissingValue(t *testing.T) {
	_, err := RawReading(map[string]any{"sensorId": "s-1"})
	require.Error(t, err)

	_, err = RawReading(map[string]any{"sensorId": "s-1", "value": "n/a"})
	require.Error(t, err)

	_, err = RawReading(map[string]any{"sensorId": "s-1", "value": nil})
	require.Error(t, err)
}

func TestFailurePredictionDefaults(t *testing.T) {
	got, err := FailurePrediction(map[string]any{
		"structureId":        "b-1",
		"failureProbability": 0.73,
		"failureRisk":        "high",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.73, got.FailureProbability)
	assert.Equal(t, model.RiskHigh, got.FailureRisk)
	assert.Equal(t, 0.5, got.Confidence, "absent confidence defaults to 0.5")
	assert.Equal(t, "unknown", got.ModelVersion)
	assert.False(t, got.Predicted24h)
}

func TestFailurePredictionRejectsMissingStructure(t *testing.T) {
	_, err := FailurePrediction(map[string]any{"failureProbability": 0.9})
	require.Error(t, err)
}

func TestFailurePredictionFactorsFromJSONKeepOrder(t *testing.T) {
	got, err := FailurePrediction(map[string]any{
		"structure_id":         "b-1",
		"contributing_factors": `{"vibration_trend": 0.4, "age": 0.3, "corrosion": 0.2}`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vibration_trend", "age", "corrosion"}, got.ContributingFactors,
		"document order survives for JSON-encoded factor maps")
}

func TestFactorNames(t *testing.T) {
	assert.Nil(t, FactorNames(nil, nil))
	assert.Nil(t, FactorNames("not json", map[string]any{}))

	assert.Equal(t, []string{"b", "c", "a"}, FactorNames(`{"b":1,"c":2,"a":3}`))

	// decoded maps carry no order, keys come back sorted
	assert.Equal(t, []string{"age", "load", "wear"},
		FactorNames(map[string]any{"wear": 1.0, "age": 2.0, "load": 3.0}))

	assert.Equal(t, []string{"x", "y"}, FactorNames([]any{"x", "y", 42}))

	// first non-empty candidate wins
	assert.Equal(t, []string{"first"}, FactorNames(`{"first":1}`, map[string]any{"second": 1.0}))
}

func TestAnomalyEventNormalization(t *testing.T) {
	got := AnomalyEvent(map[string]any{
		"id":           "ml-1",
		"sensor_id":    "s-1",
		"isAnomaly":    true,
		"anomalyScore": "0.87",
		"value":        9.5,
		"detected_at":  "2026-08-30T10:00:00Z",
	})
	assert.Equal(t, "ml-1", got.ID)
	assert.Equal(t, "s-1", got.SensorID)
	assert.True(t, got.IsAnomaly)
	assert.Equal(t, 0.87, got.AnomalyScore)
	assert.Equal(t, 9.5, got.Value)
	assert.Equal(t, UnknownID, got.ReadingType)
	assert.Equal(t, "unknown", got.ModelVersion)

	empty := AnomalyEvent(map[string]any{})
	assert.Equal(t, UnknownID, empty.SensorID)
	assert.False(t, empty.IsAnomaly)
}

func TestWeatherSnapshotDefaults(t *testing.T) {
	got := WeatherSnapshot(map[string]any{
		"city":        "Bengaluru",
		"lat":         12.97,
		"lng":         77.59,
		"flood_risk":  "HIGH",
		"temperature": 24.5,
	})
	assert.Equal(t, "Bengaluru", got.City)
	assert.Equal(t, "HIGH", got.FloodRisk)
	assert.Equal(t, "NONE", got.RainIntensity)
	assert.Equal(t, "GOOD", got.Visibility)
	assert.Equal(t, "Unknown", got.Condition)
	assert.Equal(t, 24.5, got.Temperature)
}

func TestBooleanCoercion(t *testing.T) {
	assert.True(t, boolean(map[string]any{"f": "true"}, "f"))
	assert.True(t, boolean(map[string]any{"f": 1.0}, "f"))
	assert.False(t, boolean(map[string]any{"f": 0.0}, "f"))
	assert.False(t, boolean(map[string]any{}, "f"))
}
