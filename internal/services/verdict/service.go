// Package verdict wires the Prediction Aggregator to the bus: ML prediction
// and anomaly records in, ranked per-structure verdicts out.
package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mbellini/infrawatch/internal/adapter"
	"github.com/mbellini/infrawatch/internal/model"
	"github.com/mbellini/infrawatch/internal/prediction"
	"github.com/mbellini/infrawatch/pkg/mqttbus"
)

// Metadata fetches structure and sensor records from the persistence
// collaborator once per aggregation cycle.
type Metadata struct {
	http *http.Client
	base string

	mu             sync.Mutex
	lastStructures []model.Structure
	lastSensors    []model.Sensor
}

func NewMetadata(base string, timeout time.Duration) *Metadata {
	return &Metadata{
		http: &http.Client{Timeout: timeout},
		base: strings.TrimRight(strings.TrimSpace(base), "/"),
	}
}

func (m *Metadata) getJSON(ctx context.Context, path string, out any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, m.base+path, nil)
	res, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("GET %s -> %s", m.base+path, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Fetch returns fresh metadata, falling back to the last good copy when the
// collaborator is unreachable.
func (m *Metadata) Fetch(ctx context.Context) ([]model.Structure, []model.Sensor) {
	var structures []model.Structure
	var sensors []model.Sensor
	if m.base == "" {
		return nil, nil
	}
	errS := m.getJSON(ctx, "/structures", &structures)
	errD := m.getJSON(ctx, "/sensors", &sensors)

	m.mu.Lock()
	defer m.mu.Unlock()
	if errS == nil {
		m.lastStructures = structures
	} else {
		log.Printf("metadata structures fetch failed, using last good: %v", errS)
		structures = m.lastStructures
	}
	if errD == nil {
		m.lastSensors = sensors
	} else {
		log.Printf("metadata sensors fetch failed, using last good: %v", errD)
		sensors = m.lastSensors
	}
	return structures, sensors
}

// Service buffers prediction/anomaly messages and periodically publishes the
// ranked verdict list.
type Service struct {
	consumer   mqttbus.IConsumer[model.FailurePrediction]
	publisher  mqttbus.IPublisher
	aggregator *prediction.Aggregator
	metadata   *Metadata
	interval   time.Duration

	mu          sync.Mutex
	predictions []model.FailurePrediction
	anomalies   []model.AnomalyEvent
}

func NewService(
	consumer mqttbus.IConsumer[model.FailurePrediction],
	publisher mqttbus.IPublisher,
	metadata *Metadata,
	interval time.Duration,
) *Service {
	return &Service{
		consumer:   consumer,
		publisher:  publisher,
		aggregator: prediction.NewAggregator(),
		metadata:   metadata,
		interval:   interval,
	}
}

func (s *Service) messageHandler(topic string, message mqtt.Message) error {
	var raw map[string]any
	if err := json.Unmarshal(message.Payload(), &raw); err != nil {
		log.Printf("Error unmarshalling record on %s: %v", topic, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.HasPrefix(topic, "ml/predictions"):
		p, err := adapter.FailurePrediction(raw)
		if err != nil {
			log.Printf("warn: dropping prediction on %s: %v", topic, err)
			return nil
		}
		s.predictions = append(s.predictions, p)
	case strings.HasPrefix(topic, "ml/anomalies"):
		s.anomalies = append(s.anomalies, adapter.AnomalyEvent(raw))
	}
	return nil
}

// Start runs the consumer in background and aggregates on a ticker until
// ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(s.messageHandler)
	go s.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			s.aggregateAndPublish(ctx)
		}
	}
}

func (s *Service) aggregateAndPublish(ctx context.Context) {
	s.mu.Lock()
	preds := s.predictions
	anoms := s.anomalies
	s.predictions = nil
	s.anomalies = nil
	s.mu.Unlock()

	if len(preds) == 0 && len(anoms) == 0 {
		return
	}

	structures, sensors := s.metadata.Fetch(ctx)

	verdicts := s.aggregator.Aggregate(prediction.Input{
		Predictions: preds,
		Anomalies:   anoms,
		Structures:  structures,
		Sensors:     sensors,
	})

	out := struct {
		Verdicts []model.StructureVerdict `json:"verdicts"`
		Summary  prediction.Summary       `json:"summary"`
	}{verdicts, s.aggregator.Summarize(verdicts)}

	b, err := json.Marshal(out)
	if err != nil {
		log.Printf("marshal err %v", err)
		return
	}
	if err := s.publisher.PublishMessage(string(b)); err != nil {
		log.Printf("publish err %v", err)
	} else {
		log.Printf("Published %d verdicts (%d predictions, %d anomalies)", len(verdicts), len(preds), len(anoms))
	}
}
