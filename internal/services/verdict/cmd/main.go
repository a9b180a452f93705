package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mbellini/infrawatch/internal/services/verdict"
	"github.com/mbellini/infrawatch/pkg/mqttbus"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	cfg := struct {
		Broker mqttbus.Config

		InputTopics  []string
		VerdictTopic string

		PersistenceURL string
		HTTPTimeout    time.Duration

		Interval time.Duration
	}{
		Broker: mqttbus.Config{
			Host:     envStr("MQTT_HOST", "localhost"),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", "guest"),
			Password: envStr("MQTT_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "verdict-service-"+uuid.NewString()[:8]),
		},

		InputTopics: func() []string {
			raw := envStr("INPUT_TOPICS", "ml/predictions,ml/anomalies")
			parts := strings.Split(raw, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if s := strings.TrimSpace(p); s != "" {
					out = append(out, s)
				}
			}
			return out
		}(),
		VerdictTopic: envStr("VERDICT_TOPIC", "predictions/verdicts"),

		PersistenceURL: envStr("PERSISTENCE_URL", "http://persistence:8080"),
		HTTPTimeout:    time.Duration(envInt("HTTP_TIMEOUT_MS", 3000)) * time.Millisecond,

		Interval: time.Duration(envInt("AGGREGATION_INTERVAL_S", 30)) * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mqttClient, err := mqttbus.NewConn(&cfg.Broker, ctx)
	if err != nil {
		log.Fatalf("mqtt connection error: %v", err)
	}
	defer mqttbus.CloseConn(mqttClient)

	consumer := mqttbus.NewMultiConsumer(mqttClient, cfg.InputTopics, nil)
	publisher := mqttbus.NewPublisher(mqttClient, cfg.VerdictTopic)
	metadata := verdict.NewMetadata(cfg.PersistenceURL, cfg.HTTPTimeout)

	svc := verdict.NewService(consumer, publisher, metadata, cfg.Interval)
	go svc.Start(ctx)

	log.Printf("verdict service up: in=%v out=%s every %s", cfg.InputTopics, cfg.VerdictTopic, cfg.Interval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
}
