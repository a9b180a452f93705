// Package ingest wires the Cleaner/Detector to the bus: raw telemetry in,
// processed readings out, accepted readings to the Influx sink.
package ingest

import (
	"context"
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mbellini/infrawatch/internal/model"
	"github.com/mbellini/infrawatch/internal/telemetry"
	"github.com/mbellini/infrawatch/pkg/dedup"
	"github.com/mbellini/infrawatch/pkg/mqttbus"
)

// Service consumes raw telemetry, runs the detector and publishes the
// processed readings. Every failure mode degrades per-reading: a malformed
// or rejected message never blocks the next one.
type Service struct {
	consumer  mqttbus.IConsumer[model.RawReading]
	publisher mqttbus.IPublisher
	agent     *telemetry.Agent
	writer    *Writer
	deduper   *dedup.Deduper
	metrics   *Metrics
}

func NewService(
	consumer mqttbus.IConsumer[model.RawReading],
	publisher mqttbus.IPublisher,
	agent *telemetry.Agent,
	writer *Writer,
	deduper *dedup.Deduper,
	metrics *Metrics,
) *Service {
	return &Service{
		consumer:  consumer,
		publisher: publisher,
		agent:     agent,
		writer:    writer,
		deduper:   deduper,
		metrics:   metrics,
	}
}

// Start injects the handler and blocks consuming until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(s.messageHandler)
	s.consumer.ConsumeMessage(ctx)
	s.publisher.Close()
}

func (s *Service) messageHandler(topic string, message mqtt.Message) error {
	var raw map[string]any
	if err := json.Unmarshal(message.Payload(), &raw); err != nil {
		log.Printf("warn: undecodable reading on %s: %v", topic, err)
		s.metrics.Rejected.Inc()
		return nil // noisy input is not a consumer error
	}

	cleaned := s.agent.ProcessRecord(raw)
	if cleaned == nil {
		log.Printf("warn: rejected reading on %s", topic)
		s.metrics.Rejected.Inc()
		return nil
	}

	if !s.deduper.ShouldProcess(cleaned.SensorID + "|" + cleaned.Timestamp) {
		s.metrics.Duplicates.Inc()
		return nil
	}

	b, err := json.Marshal(cleaned)
	if err != nil {
		log.Printf("marshal err %v", err)
		return nil
	}
	if err := s.publisher.PublishMessage(string(b)); err != nil {
		log.Printf("publish err %v", err)
	}

	s.writer.WriteReading(*cleaned)

	s.metrics.Processed.Inc()
	if cleaned.Anomaly {
		s.metrics.Anomalies.WithLabelValues(string(cleaned.Severity)).Inc()
	}
	return nil
}
