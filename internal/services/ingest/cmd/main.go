package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbellini/infrawatch/internal/services/ingest"
	"github.com/mbellini/infrawatch/internal/telemetry"
	"github.com/mbellini/infrawatch/pkg/dedup"
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
	// === Config ===
	cfg := struct {
		Broker mqttbus.Config

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		RawTopics      []string
		ProcessedTopic string

		HistorySize  int
		MinTraining  int
		RetrainEvery int

		DedupTTL time.Duration

		HTTPPort int
	}{
		Broker: mqttbus.Config{
			Host:     envStr("MQTT_HOST", "localhost"),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", "guest"),
			Password: envStr("MQTT_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "ingest-service"),
		},

		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "infrawatch"),
		InfluxBucket: envStr("INFLUX_BUCKET", "telemetry"),

		RawTopics: func() []string {
			raw := envStr("RAW_TOPICS", "iot/telemetry/#")
			parts := strings.Split(raw, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if s := strings.TrimSpace(p); s != "" {
					out = append(out, s)
				}
			}
			return out
		}(),
		ProcessedTopic: envStr("PROCESSED_TOPIC", "iot/processed"),

		HistorySize:  envInt("HISTORY_SIZE", 100),
		MinTraining:  envInt("MIN_TRAINING_SAMPLES", 50),
		RetrainEvery: envInt("RETRAIN_EVERY", 50),

		DedupTTL: time.Duration(envInt("DEDUP_TTL_S", 600)) * time.Second,

		HTTPPort: envInt("HTTP_PORT", 8080),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === InfluxDB ===
	influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer influx.Close()
	writer := ingest.NewWriter(influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket))

	// === MQTT ===
	mqttClient, err := mqttbus.NewConn(&cfg.Broker, ctx)
	if err != nil {
		log.Fatalf("mqtt connection error: %v", err)
	}
	defer mqttbus.CloseConn(mqttClient)

	consumer := mqttbus.NewMultiConsumer(mqttClient, cfg.RawTopics, nil)
	publisher := mqttbus.NewPublisher(mqttClient, cfg.ProcessedTopic)

	// === Detector ===
	agent := telemetry.NewAgent(telemetry.Config{
		HistorySize:        cfg.HistorySize,
		MinTrainingSamples: cfg.MinTraining,
		RetrainEvery:       cfg.RetrainEvery,
	}, nil)

	// === Metrics / HTTP ===
	reg := prometheus.NewRegistry()
	metrics := ingest.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if writer.LastErrorAge() < 30*time.Second {
			http.Error(w, "influx writes failing", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	svc := ingest.NewService(consumer, publisher, agent, writer, dedup.New(cfg.DedupTTL, 0), metrics)
	go svc.Start(ctx)

	log.Printf("ingest service up: raw=%v processed=%s http=:%d", cfg.RawTopics, cfg.ProcessedTopic, cfg.HTTPPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = hs.Shutdown(shutdownCtx)
	cancel()
}
