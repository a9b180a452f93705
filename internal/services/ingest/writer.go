package ingest

import (
	"log"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/mbellini/infrawatch/internal/model"
)

// Writer wraps the async Influx WriteAPI and tracks the last write error
// for /healthz and /readyz.
type Writer struct {
	api     api.WriteAPI
	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

// NewWriter initializes the writer and drains the async error channel.
func NewWriter(w api.WriteAPI) *Writer {
	ww := &Writer{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour), // "long ago" by default
		counts:  make(map[string]int64),
	}
	go func() {
		for err := range w.Errors() {
			if err != nil {
				ww.mu.Lock()
				ww.lastErr = time.Now()
				ww.mu.Unlock()
				log.Printf("influx write error: %v", err)
			}
		}
	}()
	return ww
}

// WriteReading queues one cleaned reading for the sink.
func (w *Writer) WriteReading(r model.CleanedReading) {
	if w == nil {
		return
	}
	w.api.WritePoint(ReadingToPoint(r))
	w.mu.Lock()
	w.counts[r.SensorType]++
	w.mu.Unlock()
}

// LastErrorAge returns how long ago the last write error happened.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

// Count reads the per-sensor-type ingest counter.
func (w *Writer) Count(sensorType string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	c := w.counts[sensorType]
	w.mu.RUnlock()
	return c
}

// ReadingToPoint normalizes a CleanedReading into a *write.Point.
func ReadingToPoint(r model.CleanedReading) *write.Point {
	tags := map[string]string{
		"sensor_id":    r.SensorID,
		"structure_id": r.StructureID,
		"sensor_type":  r.SensorType,
		"reading_type": r.ReadingType,
		"severity":     string(r.Severity),
	}

	fields := map[string]interface{}{
		"value":         r.Value,
		"anomaly_score": r.AnomalyScore,
		"anomaly":       r.Anomaly,
	}
	if r.Unit != "" {
		fields["unit"] = r.Unit
	}

	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	return influxdb2.NewPoint("sensor_reading", tags, fields, ts)
}
