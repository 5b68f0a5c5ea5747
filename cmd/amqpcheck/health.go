package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/amqppool/pool"
)

// pinger is the part of the pool the health endpoint needs.
type pinger interface {
	Ping(ctx context.Context) error
	Stat() pool.Stat
}

type healthResponse struct {
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Pool   poolComponents `json:"pool"`
}

type poolComponents struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
	Evicted  int64 `json:"evicted"`
}

// newRouter serves /health and mounts the metrics handler at metricsPath.
func newRouter(p pinger, metricsHandler http.Handler, metricsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(p))
	r.Method(http.MethodGet, metricsPath, metricsHandler)

	return r
}

// healthHandler checks out a connection to prove the broker is reachable.
// A pool that was exhausted when the request arrived reports degraded.
func healthHandler(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		// Snapshot before Ping, which returns its connection to the idle set.
		s := p.Stat()

		health := healthResponse{Status: "healthy"}
		if err := p.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
		}

		health.Pool = poolComponents{
			Total:    s.Total,
			Idle:     s.Idle,
			Acquired: s.Acquired,
			Max:      s.Max,
			Evicted:  s.Evicted,
		}
		if health.Status == "healthy" && s.Total == s.Max && s.Idle == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}
