// Package app assembles the map gateway: one upstream client per input
// collection, the view composer, and the HTTP surface serving the unified
// payload.
package app

import (
	"log"
	"time"

	"github.com/mbellini/infrawatch/internal/mapview"
)

// Config wires every upstream collaborator. URLs left empty disable the
// corresponding layer (it degrades to its empty value).
type Config struct {
	StructuresURL  string
	SensorsURL     string
	TelemetryURL   string
	AnomaliesURL   string
	MLAnomaliesURL string
	PotholesURL    string
	TicketsURL     string
	MaintenanceURL string
	FailuresURL    string
	PredictionsURL string
	WeatherURL     string

	HTTPTimeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration

	Logger *log.Logger
}

// Gateway holds the upstreams and the composer.
type Gateway struct {
	cfg      Config
	composer *mapview.Composer

	structures  *Upstream
	sensors     *Upstream
	telemetry   *Upstream
	anomalies   *Upstream
	mlAnomalies *Upstream
	potholes    *Upstream
	tickets     *Upstream
	maintenance *Upstream
	failures    *Upstream
	predictions *Upstream
	weather     *Upstream
}

func NewGateway(cfg Config) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	mk := func(name, base, path string) *Upstream {
		return NewUpstream(name, base, path, cfg.HTTPTimeout, cfg.BreakerFailures, cfg.BreakerOpenFor)
	}
	return &Gateway{
		cfg:      cfg,
		composer: mapview.NewComposer(),

		structures:  mk("structures", cfg.StructuresURL, "/structures"),
		sensors:     mk("sensors", cfg.SensorsURL, "/sensors"),
		telemetry:   mk("telemetry", cfg.TelemetryURL, "/telemetry/latest"),
		anomalies:   mk("anomalies", cfg.AnomaliesURL, "/anomalies"),
		mlAnomalies: mk("ml-anomalies", cfg.MLAnomaliesURL, "/ml/anomalies"),
		potholes:    mk("potholes", cfg.PotholesURL, "/potholes"),
		tickets:     mk("tickets", cfg.TicketsURL, "/tickets"),
		maintenance: mk("maintenance", cfg.MaintenanceURL, "/maintenance"),
		failures:    mk("failures", cfg.FailuresURL, "/failures"),
		predictions: mk("predictions", cfg.PredictionsURL, "/ml/predictions"),
		weather:     mk("weather", cfg.WeatherURL, "/weather/current"),
	}
}
