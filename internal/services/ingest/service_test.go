package ingest

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbellini/infrawatch/internal/model"
	"github.com/mbellini/infrawatch/internal/telemetry"
	"github.com/mbellini/infrawatch/pkg/dedup"
)

type fakeMessage struct {
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "iot/telemetry/test" }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var _ mqtt.Message = fakeMessage{}

type fakePublisher struct {
	published []string
	closed    bool
}

func (p *fakePublisher) PublishMessage(msg interface{}) error {
	p.published = append(p.published, msg.(string))
	return nil
}
func (p *fakePublisher) Close() { p.closed = true }

func newTestService(pub *fakePublisher) *Service {
	agent := telemetry.NewAgent(telemetry.Config{}, nil)
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewService(nil, pub, agent, nil, dedup.New(time.Minute, 100), metrics)
}

func rawPayload(t *testing.T, m map[string]any) fakeMessage {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return fakeMessage{payload: b}
}

func TestHandlerPublishesCleanedReading(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	msg := rawPayload(t, map[string]any{
		"sensorId":    "s-1",
		"structureId": "b-1",
		"sensorType":  "VIBRATION_SENSOR",
		"readingType": "vibration",
		"value":       3.0,
		"unit":        "mm/s",
		"timestamp":   "2026-08-30T10:00:00Z",
	})
	require.NoError(t, s.messageHandler("iot/telemetry/test", msg))

	require.Len(t, pub.published, 1)
	var cleaned model.CleanedReading
	require.NoError(t, json.Unmarshal([]byte(pub.published[0]), &cleaned))
	assert.Equal(t, "s-1", cleaned.SensorID)
	assert.Equal(t, 3.0, cleaned.Value)
	assert.False(t, cleaned.Anomaly)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Processed))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.metrics.Rejected))
}

func TestHandlerRejectsMalformedPayload(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	require.NoError(t, s.messageHandler("iot/telemetry/test", fakeMessage{payload: []byte("{not json")}))

	assert.Empty(t, pub.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Rejected))
}

func TestHandlerRejectsImplausibleReading(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	msg := rawPayload(t, map[string]any{
		"sensorId":   "s-1",
		"sensorType": "VIBRATION_SENSOR",
		"value":      100.0, // far beyond the plausible range
	})
	require.NoError(t, s.messageHandler("iot/telemetry/test", msg))

	assert.Empty(t, pub.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Rejected))
}

func TestHandlerSuppressesDuplicates(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	msg := rawPayload(t, map[string]any{
		"sensorId":   "s-1",
		"sensorType": "VIBRATION_SENSOR",
		"value":      3.0,
		"timestamp":  "2026-08-30T10:00:00Z",
	})
	require.NoError(t, s.messageHandler("iot/telemetry/test", msg))
	require.NoError(t, s.messageHandler("iot/telemetry/test", msg))

	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Processed))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Duplicates))
}

func TestHandlerCountsAnomaliesBySeverity(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	msg := rawPayload(t, map[string]any{
		"sensorId":   "s-1",
		"sensorType": "VIBRATION_SENSOR",
		"value":      9.0, // above the critical threshold
		"timestamp":  "2026-08-30T10:00:00Z",
	})
	require.NoError(t, s.messageHandler("iot/telemetry/test", msg))

	require.Len(t, pub.published, 1)
	var cleaned model.CleanedReading
	require.NoError(t, json.Unmarshal([]byte(pub.published[0]), &cleaned))
	assert.True(t, cleaned.Anomaly)
	assert.Equal(t, model.SeverityCritical, cleaned.Severity)

	got := testutil.ToFloat64(s.metrics.Anomalies.WithLabelValues(string(model.SeverityCritical)))
	assert.Equal(t, 1.0, got)
}
