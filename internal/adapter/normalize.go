// Package adapter normalizes the loosely-keyed records arriving from
// collaborators (camelCase vs snake_case, numbers as strings, factor maps as
// JSON text) onto the canonical typed records of internal/model. The core
// pipeline only ever sees canonical records.
package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mbellini/infrawatch/internal/model"
)

// UnknownID is the sentinel for absent identifier fields.
const UnknownID = "UNKNOWN"

var errMissingValue = errors.New("adapter: missing or unparseable value")

// str returns the first non-empty string among the given keys.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// num returns the first parseable number among the given keys.
func num(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, true
			}
		case bool:
			if x {
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

func boolean(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case bool:
			return x
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b
			}
		case float64:
			return x != 0
		}
	}
	return false
}

// RawReading maps a raw telemetry record onto the canonical struct.
// The value field is required; everything else degrades to sentinels or
// zero values per the validation policy.
func RawReading(m map[string]any) (model.RawReading, error) {
	value, ok := num(m, "value")
	if !ok {
		return model.RawReading{}, errMissingValue
	}
	sensorID := str(m, "sensorId", "sensor_id")
	if sensorID == "" {
		sensorID = UnknownID
	}
	structureID := str(m, "structureId", "structure_id")
	if structureID == "" {
		structureID = UnknownID
	}
	ts := str(m, "timestamp")
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	lat, _ := num(m, "latitude", "lat")
	lng, _ := num(m, "longitude", "lng")

	return model.RawReading{
		SensorID:    sensorID,
		StructureID: structureID,
		SensorType:  orDefault(str(m, "sensorType", "sensor_type"), UnknownID),
		ReadingType: orDefault(str(m, "readingType", "reading_type"), UnknownID),
		Value:       value,
		Unit:        str(m, "unit"),
		Latitude:    lat,
		Longitude:   lng,
		Timestamp:   ts,
	}, nil
}

// FailurePrediction maps an ML prediction record onto the canonical struct.
// A record without a structure id cannot be grouped and is rejected.
func FailurePrediction(m map[string]any) (model.FailurePrediction, error) {
	structureID := str(m, "structureId", "structure_id")
	if structureID == "" {
		return model.FailurePrediction{}, fmt.Errorf("adapter: prediction without structure id")
	}
	prob, _ := num(m, "failureProbability", "failure_probability")
	conf, ok := num(m, "confidenceScore", "confidence_score")
	if !ok {
		conf = 0.5
	}
	return model.FailurePrediction{
		ID:                  str(m, "id"),
		StructureID:         structureID,
		FailureProbability:  prob,
		FailureRisk:         model.ParseRiskLevel(str(m, "failureRisk", "failure_risk")),
		Predicted24h:        boolean(m, "predictedFailure24h", "predicted_failure_24h", "predicted_within_24h"),
		Confidence:          conf,
		ContributingFactors: FactorNames(m["contributingFactors"], m["contributing_factors"]),
		ModelVersion:        orDefault(str(m, "modelVersion", "model_version"), "unknown"),
		PredictedAt:         str(m, "predictedAt", "predicted_at"),
	}, nil
}

// AnomalyEvent maps an ML anomaly-detection record onto the canonical struct.
func AnomalyEvent(m map[string]any) model.AnomalyEvent {
	score, _ := num(m, "anomalyScore", "anomaly_score")
	value, _ := num(m, "value")
	return model.AnomalyEvent{
		ID:           str(m, "id"),
		SensorID:     orDefault(str(m, "sensorId", "sensor_id"), UnknownID),
		IsAnomaly:    boolean(m, "isAnomaly", "is_anomaly"),
		AnomalyScore: score,
		ReadingType:  orDefault(str(m, "readingType", "reading_type"), UnknownID),
		Value:        value,
		ModelVersion: orDefault(str(m, "modelVersion", "model_version"), "unknown"),
		DetectedAt:   str(m, "detectedAt", "detected_at"),
	}
}

// WeatherSnapshot maps a weather overlay record onto the canonical struct.
func WeatherSnapshot(m map[string]any) model.WeatherSnapshot {
	lat, _ := num(m, "lat", "latitude")
	lng, _ := num(m, "lng", "longitude")
	temp, _ := num(m, "temperature")
	return model.WeatherSnapshot{
		City:          orDefault(str(m, "city"), "Unknown"),
		Lat:           lat,
		Lng:           lng,
		RainIntensity: orDefault(str(m, "rainIntensity", "rain_intensity"), "NONE"),
		FloodRisk:     orDefault(str(m, "floodRisk", "flood_risk"), "NONE"),
		Visibility:    orDefault(str(m, "visibility"), "GOOD"),
		Temperature:   temp,
		Condition:     orDefault(str(m, "condition", "weather_condition"), "Unknown"),
		Timestamp:     str(m, "timestamp"),
	}
}

// FactorNames extracts contributing-factor names from whichever
// representation the collaborator used: a JSON-encoded object (document
// order preserved), an already-decoded map (sorted keys, Go maps keep no
// order), or a plain list of names.
func FactorNames(candidates ...any) []string {
	for _, raw := range candidates {
		switch v := raw.(type) {
		case nil:
			continue
		case string:
			if names := factorNamesFromJSON(v); len(names) > 0 {
				return names
			}
		case map[string]any:
			if len(v) == 0 {
				continue
			}
			names := make([]string, 0, len(v))
			for k := range v {
				names = append(names, k)
			}
			sort.Strings(names)
			return names
		case []any:
			var names []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					names = append(names, s)
				}
			}
			if len(names) > 0 {
				return names
			}
		}
	}
	return nil
}

// factorNamesFromJSON walks the object tokens so key order survives.
func factorNamesFromJSON(s string) []string {
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var names []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return names
		}
		key, ok := kt.(string)
		if !ok {
			return names
		}
		names = append(names, key)
		var skip any
		if err := dec.Decode(&skip); err != nil {
			return names
		}
	}
	return names
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
