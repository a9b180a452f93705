package mapview

import (
	"math"
	"time"

	"github.com/mbellini/infrawatch/internal/model"
)

// staleAfter downgrades an active sensor whose heartbeat is older than this.
const staleAfter = 300 * time.Second

// Input carries every collection one composition works on. Any collection
// may be nil or partial; each layer degrades independently.
type Input struct {
	Structures  []model.Structure
	Sensors     []model.Sensor
	Telemetry   []model.CleanedReading
	Anomalies   []model.UtilityAnomaly
	MLAnomalies []model.AnomalyEvent
	Potholes    []model.Pothole
	Tickets     []model.Ticket
	Maintenance []model.MaintenanceLog
	Failures    []model.FailureEvent
	Predictions []model.FailurePrediction
	Weather     *model.WeatherSnapshot
}

// Composer is stateless; Orchestrate is a pure function of its input plus
// the clock used for the generatedAt stamp and heartbeat staleness.
type Composer struct {
	now func() time.Time
}

func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// Orchestrate runs every per-layer transform, assembles the payload and
// derives the summary counters from the built layers. Identical non-time
// inputs always yield identical layers and summary.
func (c *Composer) Orchestrate(in Input) Payload {
	now := c.now().UTC()

	layers := Layers{
		Structures:  c.BuildStructures(in.Structures, in.Predictions),
		Sensors:     c.BuildSensors(in.Sensors, in.Telemetry, now),
		Anomalies:   c.BuildAnomalies(in.Anomalies, in.Sensors),
		MLAnomalies: c.BuildMLAnomalies(in.MLAnomalies, in.Sensors),
		Potholes:    c.BuildPotholes(in.Potholes),
		Tickets:     c.BuildTickets(in.Tickets),
		Maintenance: c.BuildMaintenance(in.Maintenance, in.Structures),
		Failures:    c.BuildFailures(in.Failures, in.Structures),
		Predictions: c.BuildPredictions(in.Predictions, in.Structures),
		Heatmap:     c.BuildHeatmap(in.Telemetry, in.Sensors),
	}
	if in.Weather != nil {
		w := WeatherLayer(*in.Weather)
		layers.Weather = &w
	}

	return Payload{
		Layers:      layers,
		Summary:     c.Summary(layers),
		GeneratedAt: now.Format(time.RFC3339),
	}
}

// BuildStructures joins structures with their latest prediction: a present
// prediction overrides the static risk score and risk label.
func (c *Composer) BuildStructures(structures []model.Structure, predictions []model.FailurePrediction) []StructureLayer {
	predByStruct := make(map[string]model.FailurePrediction, len(predictions))
	for _, p := range predictions {
		predByStruct[p.StructureID] = p
	}

	out := make([]StructureLayer, 0, len(structures))
	for _, s := range structures {
		name := s.Name
		if name == "" {
			name = "Unknown Structure"
		}
		structType := s.StructureType
		if structType == "" {
			structType = "UNKNOWN"
		}
		riskScore := s.RiskScore
		failureRisk := model.RiskLow
		if p, ok := predByStruct[s.ID]; ok {
			riskScore = p.FailureProbability
			failureRisk = p.FailureRisk
		}
		out = append(out, StructureLayer{
			ID:             s.ID,
			Name:           name,
			Lat:            s.Latitude,
			Lng:            s.Longitude,
			StructureType:  structType,
			RiskScore:      riskScore,
			ConditionScore: s.ConditionScore,
			FailureRisk:    failureRisk,
			Zone:           s.Zone,
		})
	}
	return out
}

// BuildSensors joins each sensor with its most recent telemetry record.
// Timestamps are compared as strings: collaborators emit RFC3339, which
// sorts lexicographically.
func (c *Composer) BuildSensors(sensors []model.Sensor, telemetry []model.CleanedReading, now time.Time) []SensorLayer {
	latest := make(map[string]model.CleanedReading)
	for _, t := range telemetry {
		cur, ok := latest[t.SensorID]
		if !ok || t.Timestamp > cur.Timestamp {
			latest[t.SensorID] = t
		}
	}

	out := make([]SensorLayer, 0, len(sensors))
	for _, s := range sensors {
		status := "INACTIVE"
		if s.IsActive {
			status = "ACTIVE"
		}
		if s.LastHeartbeat != "" {
			if hb, err := time.Parse(time.RFC3339, s.LastHeartbeat); err == nil {
				if now.Sub(hb) > staleAfter {
					status = "STALE"
				}
			}
		}

		code := s.SensorCode
		if code == "" {
			code = shortID(s.ID)
		}
		sensorType := s.SensorType
		if sensorType == "" {
			sensorType = "UNKNOWN"
		}

		layer := SensorLayer{
			ID:            s.ID,
			SensorCode:    code,
			Lat:           s.Latitude,
			Lng:           s.Longitude,
			SensorType:    sensorType,
			Status:        status,
			LastHeartbeat: s.LastHeartbeat,
			StructureID:   s.StructureID,
		}
		if t, ok := latest[s.ID]; ok {
			v := t.Value
			rt := t.ReadingType
			layer.LatestValue = &v
			layer.LatestReadingType = &rt
		}
		out = append(out, layer)
	}
	return out
}

// BuildAnomalies renders utility anomalies, borrowing coordinates from the
// owning sensor when the record lacks them.
func (c *Composer) BuildAnomalies(anomalies []model.UtilityAnomaly, sensors []model.Sensor) []AnomalyLayer {
	sensorByID := indexSensors(sensors)

	out := make([]AnomalyLayer, 0, len(anomalies))
	for _, a := range anomalies {
		lat, lng := a.Latitude, a.Longitude
		if lat == 0 && lng == 0 {
			if s, ok := sensorByID[a.SensorID]; ok {
				lat, lng = s.Latitude, s.Longitude
			}
		}
		anomalyType := a.AnomalyType
		if anomalyType == "" {
			anomalyType = "UNKNOWN"
		}
		severity := a.Severity
		if severity == "" {
			severity = model.SeverityLow
		}
		out = append(out, AnomalyLayer{
			ID:          a.ID,
			Lat:         lat,
			Lng:         lng,
			AnomalyType: anomalyType,
			Severity:    severity,
			DetectedAt:  a.DetectedAt,
			SensorID:    a.SensorID,
			Value:       a.DetectedValue,
			IsResolved:  a.IsResolved,
		})
	}
	return out
}

// BuildMLAnomalies keeps only records actually flagged as anomalous and
// places them at their sensor's coordinates.
func (c *Composer) BuildMLAnomalies(events []model.AnomalyEvent, sensors []model.Sensor) []MLAnomalyLayer {
	sensorByID := indexSensors(sensors)

	out := make([]MLAnomalyLayer, 0, len(events))
	for _, e := range events {
		if !e.IsAnomaly {
			continue
		}
		var lat, lng float64
		if s, ok := sensorByID[e.SensorID]; ok {
			lat, lng = s.Latitude, s.Longitude
		}
		out = append(out, MLAnomalyLayer{
			ID:           e.ID,
			SensorID:     e.SensorID,
			Lat:          lat,
			Lng:          lng,
			ReadingType:  e.ReadingType,
			Value:        e.Value,
			AnomalyScore: e.AnomalyScore,
			DetectedAt:   e.DetectedAt,
			ModelVersion: e.ModelVersion,
		})
	}
	return out
}

func (c *Composer) BuildPotholes(potholes []model.Pothole) []PotholeLayer {
	out := make([]PotholeLayer, 0, len(potholes))
	for _, p := range potholes {
		priority := p.PriorityLevel
		if priority == "" {
			priority = "LOW"
		}
		roadName := ""
		if p.RoadInfo != nil {
			roadName = p.RoadInfo.RoadName
		}
		out = append(out, PotholeLayer{
			ID:            p.ID,
			Lat:           p.Latitude,
			Lng:           p.Longitude,
			Priority:      priority,
			PriorityScore: p.PriorityScore,
			TicketID:      p.TicketID,
			ImageURL:      p.ImageURL,
			RoadName:      roadName,
			CreatedAt:     p.CreatedAt,
		})
	}
	return out
}

func (c *Composer) BuildTickets(tickets []model.Ticket) []TicketLayer {
	out := make([]TicketLayer, 0, len(tickets))
	for _, t := range tickets {
		number := t.TicketNumber
		if number == "" {
			number = shortID(t.ID)
		}
		status := t.Status
		if status == "" {
			status = "DETECTED"
		}
		worker := ""
		if t.AssignedWorker != nil {
			worker = t.AssignedWorker.Name
		}
		out = append(out, TicketLayer{
			ID:             t.ID,
			TicketNumber:   number,
			Status:         status,
			PotholeCount:   len(t.PotholeIDs),
			AssignedWorker: worker,
			ETA:            t.EstimatedETA,
			CreatedAt:      t.CreatedAt,
		})
	}
	return out
}

func (c *Composer) BuildMaintenance(logs []model.MaintenanceLog, structures []model.Structure) []MaintenanceLayer {
	structByID := indexStructures(structures)

	out := make([]MaintenanceLayer, 0, len(logs))
	for _, l := range logs {
		lat, lng := l.Latitude, l.Longitude
		if lat == 0 && lng == 0 {
			if s, ok := structByID[l.StructureID]; ok {
				lat, lng = s.Latitude, s.Longitude
			}
		}
		logType := l.LogType
		if logType == "" {
			logType = "UNKNOWN"
		}
		out = append(out, MaintenanceLayer{
			ID:          l.ID,
			Lat:         lat,
			Lng:         lng,
			LogType:     logType,
			Description: l.Description,
			PerformedAt: l.PerformedAt,
			StructureID: l.StructureID,
		})
	}
	return out
}

func (c *Composer) BuildFailures(failures []model.FailureEvent, structures []model.Structure) []FailureEventLayer {
	structByID := indexStructures(structures)

	out := make([]FailureEventLayer, 0, len(failures))
	for _, f := range failures {
		var lat, lng float64
		if s, ok := structByID[f.StructureID]; ok {
			lat, lng = s.Latitude, s.Longitude
		}
		failureType := f.FailureType
		if failureType == "" {
			failureType = "UNKNOWN"
		}
		severity := f.Severity
		if severity == "" {
			severity = model.SeverityLow
		}
		out = append(out, FailureEventLayer{
			ID:          f.ID,
			StructureID: f.StructureID,
			Lat:         lat,
			Lng:         lng,
			FailureType: failureType,
			Severity:    severity,
			OccurredAt:  f.OccurredAt,
			IsResolved:  f.ResolvedAt != "",
		})
	}
	return out
}

func (c *Composer) BuildPredictions(predictions []model.FailurePrediction, structures []model.Structure) []PredictionLayer {
	structByID := indexStructures(structures)

	out := make([]PredictionLayer, 0, len(predictions))
	for _, p := range predictions {
		var lat, lng float64
		if s, ok := structByID[p.StructureID]; ok {
			lat, lng = s.Latitude, s.Longitude
		}
		out = append(out, PredictionLayer{
			ID:                 p.ID,
			StructureID:        p.StructureID,
			Lat:                lat,
			Lng:                lng,
			FailureProbability: p.FailureProbability,
			FailureRisk:        p.FailureRisk,
			PredictedWithin24h: p.Predicted24h,
			PredictedAt:        p.PredictedAt,
		})
	}
	return out
}

// BuildHeatmap min-max normalizes the full telemetry batch into [0,1]
// intensities. Points whose sensor is unknown or carries zero coordinates
// are dropped; a constant batch normalizes to all zeros.
func (c *Composer) BuildHeatmap(telemetry []model.CleanedReading, sensors []model.Sensor) []HeatmapPoint {
	if len(telemetry) == 0 {
		return []HeatmapPoint{}
	}
	sensorByID := indexSensors(sensors)

	minVal, maxVal := telemetry[0].Value, telemetry[0].Value
	for _, t := range telemetry[1:] {
		minVal = math.Min(minVal, t.Value)
		maxVal = math.Max(maxVal, t.Value)
	}
	span := maxVal - minVal
	if span == 0 {
		span = 1
	}

	out := make([]HeatmapPoint, 0, len(telemetry))
	for _, t := range telemetry {
		s, ok := sensorByID[t.SensorID]
		if !ok || s.Latitude == 0 || s.Longitude == 0 {
			continue
		}
		intensity := (t.Value - minVal) / span
		readingType := t.ReadingType
		if readingType == "" {
			readingType = "UNKNOWN"
		}
		out = append(out, HeatmapPoint{
			Lat:         s.Latitude,
			Lng:         s.Longitude,
			Intensity:   round3(intensity),
			ReadingType: readingType,
		})
	}
	return out
}

// Summary derives the fixed counter set by scanning the built layers, not
// the raw inputs.
func (c *Composer) Summary(layers Layers) map[string]any {
	activeSensors := 0
	for _, s := range layers.Sensors {
		if s.Status == "ACTIVE" {
			activeSensors++
		}
	}
	unresolvedAnomalies := 0
	for _, a := range layers.Anomalies {
		if !a.IsResolved {
			unresolvedAnomalies++
		}
	}
	criticalPotholes := 0
	for _, p := range layers.Potholes {
		if p.Priority == "CRITICAL" {
			criticalPotholes++
		}
	}
	pendingTickets := 0
	for _, t := range layers.Tickets {
		if t.Status != "RESOLVED" && t.Status != "REJECTED" {
			pendingTickets++
		}
	}
	unresolvedFailures := 0
	for _, f := range layers.Failures {
		if !f.IsResolved {
			unresolvedFailures++
		}
	}
	highRiskStructures := 0
	for _, s := range layers.Structures {
		if s.FailureRisk == model.RiskHigh || s.FailureRisk == model.RiskCritical {
			highRiskStructures++
		}
	}
	predictions24h := 0
	for _, p := range layers.Predictions {
		if p.PredictedWithin24h {
			predictions24h++
		}
	}
	weatherRisk := "UNKNOWN"
	if layers.Weather != nil {
		weatherRisk = layers.Weather.FloodRisk
	}

	return map[string]any{
		"total_structures":     len(layers.Structures),
		"total_sensors":        len(layers.Sensors),
		"active_sensors":       activeSensors,
		"total_anomalies":      len(layers.Anomalies),
		"unresolved_anomalies": unresolvedAnomalies,
		"ml_anomalies":         len(layers.MLAnomalies),
		"total_potholes":       len(layers.Potholes),
		"critical_potholes":    criticalPotholes,
		"total_tickets":        len(layers.Tickets),
		"pending_tickets":      pendingTickets,
		"maintenance_logs":     len(layers.Maintenance),
		"failure_events":       len(layers.Failures),
		"unresolved_failures":  unresolvedFailures,
		"high_risk_structures": highRiskStructures,
		"predictions_24h":      predictions24h,
		"weather_risk":         weatherRisk,
	}
}

func indexSensors(sensors []model.Sensor) map[string]model.Sensor {
	m := make(map[string]model.Sensor, len(sensors))
	for _, s := range sensors {
		m[s.ID] = s
	}
	return m
}

func indexStructures(structures []model.Structure) map[string]model.Structure {
	m := make(map[string]model.Structure, len(structures))
	for _, s := range structures {
		m[s.ID] = s
	}
	return m
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
