package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// ReadyCheck probes a single dependency for readiness.
type ReadyCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	environment string
	started     time.Time
	clock       func() time.Time
	checks      map[string]ReadyCheck
}

// HealthOption customises health handler construction.
type HealthOption func(*HealthHandlers)

// WithHealthEnvironment annotates health payloads with the deployment environment.
func WithHealthEnvironment(env string) HealthOption {
	return func(h *HealthHandlers) {
		h.environment = env
	}
}

// WithHealthClock overrides the clock, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithReadyCheck registers a named dependency probe for /readyz.
func WithReadyCheck(name string, check ReadyCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// NewHealthHandlers constructs health handlers with the supplied options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		started: time.Now(),
		clock:   time.Now,
		checks:  make(map[string]ReadyCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.started).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.environment != "" {
		payload["environment"] = h.environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz probes registered dependencies and reports per-check status.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	checks := make(map[string]string, len(h.checks))

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = "unavailable"
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	payload := map[string]any{
		"status":    overall,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	}
	if len(checks) > 0 {
		payload["checks"] = checks
	}
	writeJSONResponse(w, status, payload)
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
