package main

import (
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Collaborator base URLs; empty disables a layer.
	PersistenceURL string // structures, sensors, anomalies, potholes, tickets, maintenance, failures
	TelemetryURL   string // latest processed readings
	MLServingURL   string // predictions + ml anomalies
	WeatherURL     string

	TimeoutMs int

	BreakerFailures int
	BreakerOpenMs   int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func loadConfig() Config {
	return Config{
		Port: getenv("PORT", "5010"),

		PersistenceURL: getenv("PERSISTENCE_URL", "http://persistence:8080"),
		TelemetryURL:   getenv("TELEMETRY_URL", "http://telemetry-store:8080"),
		MLServingURL:   getenv("ML_SERVING_URL", "http://ml-serving:8080"),
		WeatherURL:     getenv("WEATHER_URL", ""),

		TimeoutMs: getenvInt("TIMEOUT_MS", 3000),

		BreakerFailures: getenvInt("CB_FAILS", 3),
		BreakerOpenMs:   getenvInt("CB_OPEN_MS", 10000),
	}
}
