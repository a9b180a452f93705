package main

import (
	"log"
	"net/http"
	"time"

	"github.com/mbellini/infrawatch/internal/services/mapgateway/app"
)

func main() {
	cfg := loadConfig()

	gw := app.NewGateway(app.Config{
		StructuresURL:  cfg.PersistenceURL,
		SensorsURL:     cfg.PersistenceURL,
		TelemetryURL:   cfg.TelemetryURL,
		AnomaliesURL:   cfg.PersistenceURL,
		MLAnomaliesURL: cfg.MLServingURL,
		PotholesURL:    cfg.PersistenceURL,
		TicketsURL:     cfg.PersistenceURL,
		MaintenanceURL: cfg.PersistenceURL,
		FailuresURL:    cfg.PersistenceURL,
		PredictionsURL: cfg.MLServingURL,
		WeatherURL:     cfg.WeatherURL,

		HTTPTimeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		BreakerFailures: cfg.BreakerFailures,
		BreakerOpenFor:  time.Duration(cfg.BreakerOpenMs) * time.Millisecond,
	})

	http.HandleFunc("/healthz", gw.HandleHealthz)
	http.HandleFunc("/map/data", gw.HandleMapData)

	addr := ":" + cfg.Port
	log.Printf("map gateway listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
