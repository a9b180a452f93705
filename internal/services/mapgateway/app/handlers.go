package app

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/mbellini/infrawatch/internal/adapter"
	"github.com/mbellini/infrawatch/internal/mapview"
	"github.com/mbellini/infrawatch/internal/model"
)

// lastGoodWeather keeps the previous snapshot when the weather collaborator
// is down; weather is the only layer with a meaningful stale fallback.
var (
	weatherMu       sync.Mutex
	lastGoodWeather *model.WeatherSnapshot
)

// HandleMapData fetches every collection in parallel, composes the payload
// and serves it. Any failed upstream degrades to its empty value.
func (g *Gateway) HandleMapData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	var in mapview.Input
	var weatherRaw map[string]any
	var predictionsRaw, mlAnomaliesRaw []map[string]any

	var wg sync.WaitGroup
	fetch := func(u *Upstream, out any) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := u.GetJSON(ctx, out); err != nil {
				g.cfg.Logger.Printf("warn: %v", err)
			}
		}()
	}

	fetch(g.structures, &in.Structures)
	fetch(g.sensors, &in.Sensors)
	fetch(g.telemetry, &in.Telemetry)
	fetch(g.anomalies, &in.Anomalies)
	fetch(g.mlAnomalies, &mlAnomaliesRaw)
	fetch(g.potholes, &in.Potholes)
	fetch(g.tickets, &in.Tickets)
	fetch(g.maintenance, &in.Maintenance)
	fetch(g.failures, &in.Failures)
	fetch(g.predictions, &predictionsRaw)
	fetch(g.weather, &weatherRaw)
	wg.Wait()

	// normalize the loosely-keyed collaborator records at the boundary
	for _, raw := range predictionsRaw {
		if p, err := adapter.FailurePrediction(raw); err == nil {
			in.Predictions = append(in.Predictions, p)
		}
	}
	for _, raw := range mlAnomaliesRaw {
		in.MLAnomalies = append(in.MLAnomalies, adapter.AnomalyEvent(raw))
	}
	in.Weather = g.resolveWeather(weatherRaw)

	payload := g.composer.Orchestrate(in)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)

	g.cfg.Logger.Printf("GET /map/data [%dms] structures=%d sensors=%d telemetry=%d predictions=%d",
		time.Since(start).Milliseconds(),
		len(in.Structures), len(in.Sensors), len(in.Telemetry), len(in.Predictions))
}

// resolveWeather normalizes the snapshot and maintains the last-good copy.
func (g *Gateway) resolveWeather(raw map[string]any) *model.WeatherSnapshot {
	weatherMu.Lock()
	defer weatherMu.Unlock()
	if len(raw) == 0 {
		return lastGoodWeather
	}
	snap := adapter.WeatherSnapshot(raw)
	lastGoodWeather = &snap
	return &snap
}

// HandleHealthz is the liveness probe.
func (g *Gateway) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}
