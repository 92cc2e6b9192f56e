package services

import (
	"sync"
	"time"
)

// Trace step statuses.
const (
	TraceStatusOK      = "ok"
	TraceStatusSkipped = "skipped"
	TraceStatusFailed  = "failed"
)

// TraceStep describes one recorded pipeline step.
type TraceStep struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsedMs"`
}

// TraceRecorder collects pipeline steps for debug responses. A nil recorder
// discards everything, so callers can pass it unconditionally.
type TraceRecorder struct {
	mu    sync.Mutex
	clock func() time.Time
	steps []TraceStep
}

// NewTraceRecorder constructs a recorder using the supplied clock, defaulting to time.Now.
func NewTraceRecorder(clock func() time.Time) *TraceRecorder {
	if clock == nil {
		clock = time.Now
	}
	return &TraceRecorder{clock: clock}
}

// Step starts timing a named step and returns a finish function that records
// the status and optional detail.
func (r *TraceRecorder) Step(name string) func(status, detail string) {
	if r == nil {
		return func(string, string) {}
	}
	start := r.clock()
	return func(status, detail string) {
		elapsed := r.clock().Sub(start)
		r.mu.Lock()
		r.steps = append(r.steps, TraceStep{
			Name:    name,
			Status:  status,
			Detail:  detail,
			Elapsed: elapsed,
		})
		r.mu.Unlock()
	}
}

// Record appends a completed step without timing.
func (r *TraceRecorder) Record(name, status, detail string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.steps = append(r.steps, TraceStep{Name: name, Status: status, Detail: detail})
	r.mu.Unlock()
}

// Steps returns the recorded steps in order.
func (r *TraceRecorder) Steps() []TraceStep {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceStep, len(r.steps))
	copy(out, r.steps)
	return out
}
