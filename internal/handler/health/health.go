// Package health reports whether the service's backing dependencies are
// reachable.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Dependency is a named check. A failing optional dependency is reported
// as degraded but does not turn the response into a 503.
type Dependency struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Handler struct {
	deps    []Dependency
	timeout time.Duration
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, deps ...Dependency) *Handler {
	return &Handler{deps: deps, timeout: 3 * time.Second, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]result `json:"checks"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		resp = response{Status: "ok", Checks: make(map[string]result, len(h.deps))}
		code = http.StatusOK
	)

	var g errgroup.Group
	for _, d := range h.deps {
		g.Go(func() error {
			start := time.Now()
			err := d.Checker.Check(ctx)
			res := result{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Error("health check failed", "name", d.Name, "optional", d.Optional, "error", err)
				res.Status = "error"
				if d.Optional {
					if resp.Status == "ok" {
						resp.Status = "degraded"
					}
				} else {
					resp.Status = "error"
					code = http.StatusServiceUnavailable
				}
			}
			resp.Checks[d.Name] = res
			return nil
		})
	}
	g.Wait()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
