package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Upstream wraps one collaborator endpoint behind its own circuit breaker.
type Upstream struct {
	name    string
	base    string
	path    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewUpstream builds a client toward one upstream collection. An empty base
// marks the upstream as not configured; fetches are then no-ops.
func NewUpstream(name, base, path string, timeout time.Duration, failures int, openFor time.Duration) *Upstream {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
	})
	return &Upstream{
		name:    name,
		base:    base,
		path:    path,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
	}
}

// GetJSON fetches and decodes the collection into out. A missing optional
// upstream is not an error; out stays untouched.
func (u *Upstream) GetJSON(ctx context.Context, out any) error {
	if u == nil || u.base == "" {
		return nil
	}
	_, err := u.breaker.Execute(func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.base+u.path, nil)
		resp, err := u.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request error: %w", u.name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s upstream status %d", u.name, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s decode error: %w", u.name, err)
		}
		return nil, nil
	})
	return err
}
