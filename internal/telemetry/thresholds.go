package telemetry

// Thresholds holds the physical range and critical level for one sensor type.
type Thresholds struct {
	Min      float64
	Max      float64
	Critical float64
}

// DefaultThresholds is the per-sensor-type range table. Readings outside
// [Min*0.5, Max*1.5] are implausible and dropped; inside they are clamped
// to [Min, Max]. Critical drives the rule-based anomaly check.
var DefaultThresholds = map[string]Thresholds{
	"VIBRATION_SENSOR":   {Min: 0, Max: 10, Critical: 8},
	"PRESSURE_SENSOR":    {Min: 20, Max: 100, Critical: 90},
	"TEMPERATURE_SENSOR": {Min: -10, Max: 60, Critical: 50},
	"WATER_METER":        {Min: 0, Max: 1000, Critical: 800},
	"ENERGY_METER":       {Min: 0, Max: 500, Critical: 450},
}

// Fallbacks for unknown sensor types. Cleaning uses a wide generic range;
// the rule and severity checks use a tighter one. Two distinct defaults,
// matching the historical behavior of the pipeline.
var (
	fallbackCleanRange = Thresholds{Min: 0, Max: 1000}
	fallbackCritical   = Thresholds{Min: 0, Max: 100, Critical: 80}
)

// cleanRangeFor returns the bounds used for validation and clamping.
func (c Config) cleanRangeFor(sensorType string) Thresholds {
	if t, ok := c.Thresholds[sensorType]; ok {
		return t
	}
	return fallbackCleanRange
}

// criticalFor returns the thresholds used for the rule check and severity.
func (c Config) criticalFor(sensorType string) Thresholds {
	if t, ok := c.Thresholds[sensorType]; ok {
		return t
	}
	return fallbackCritical
}
