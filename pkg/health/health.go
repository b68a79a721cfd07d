// Package health serves liveness and readiness checks.
//
// Checks run in the background on a fixed interval and the endpoints only
// report the last known state, so a slow dependency never blocks a check request.
// A check flips to failing after FailureThreshold consecutive errors and back
// to passing after SuccessThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is usable.
type CheckFunc func(ctx context.Context) error

type kind uint8

const (
	liveness kind = iota
	readiness
)

// Thresholds control how many consecutive results change a check's state.
type Thresholds struct {
	Failure int
	Success int
}

// DefaultThresholds tolerate two failures in a row.
var DefaultThresholds = Thresholds{Failure: 3, Success: 1}

type check struct {
	name    string
	kind    kind
	timeout time.Duration
	fn      CheckFunc
	limits  Thresholds

	passing atomic.Bool
	lastErr atomic.Value // string

	// Touched only by the goroutine that polls this check.
	fails, oks int
}

func (c *check) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.fn(ctx); err != nil {
		c.lastErr.Store(err.Error())
		c.oks = 0
		if c.fails++; c.fails >= c.limits.Failure {
			c.passing.Store(false)
		}
		return
	}
	c.lastErr.Store("")
	c.fails = 0
	if c.oks++; c.oks >= c.limits.Success {
		c.passing.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.passing.Load() {
		return "", false
	}
	if msg, _ := c.lastErr.Load().(string); msg != "" {
		return msg, true
	}
	return "failing", true
}

// Health owns the registered checks and the manual readiness flag.
type Health struct {
	limits Thresholds
	ready  atomic.Bool

	mu     sync.Mutex
	checks []*check
	stop   context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true) is called.
func New() *Health {
	return NewWithThresholds(DefaultThresholds)
}

func NewWithThresholds(t Thresholds) *Health {
	if t.Failure < 1 {
		t.Failure = 1
	}
	if t.Success < 1 {
		t.Success = 1
	}
	return &Health{limits: t}
}

func (h *Health) add(k kind, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, kind: k, timeout: timeout, fn: fn, limits: h.limits}
	c.passing.Store(true)

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(liveness, name, timeout, fn)
}

// AddReadinessCheck registers a check that decides whether the process should
// receive traffic, such as order storage being reachable.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.add(readiness, name, timeout, fn)
}

// Start polls every check once immediately and then every interval until
// Stop is called or ctx is done. Checks added after Start are not polled.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		return
	}
	ctx, h.stop = context.WithCancel(ctx)

	for _, c := range h.checks {
		go func() {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				c.poll(ctx)
				select {
				case <-ctx.Done():
					return
				case <-t.C:
				}
			}
		}()
	}
}

// Stop halts polling. It may be called more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

// SetReady flips the manual readiness flag, typically true after startup and
// false at the beginning of shutdown.
func (h *Health) SetReady(ready bool) { h.ready.Store(ready) }

// IsReady reports whether the flag is set and every readiness check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(readiness)) == 0
}

type failure struct {
	name, msg string
}

func (h *Health) failures(k kind) []failure {
	h.mu.Lock()
	checks := slices.Clone(h.checks)
	h.mu.Unlock()

	var out []failure
	for _, c := range checks {
		if c.kind != k {
			continue
		}
		if msg, failed := c.failure(); failed {
			out = append(out, failure{name: c.name, msg: msg})
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	respond(w, h.failures(liveness))
}

// ReadyEndpoint serves /readyz. The manual flag is reported as a failure
// named "startup".
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := h.failures(readiness)
	if !h.ready.Load() {
		failed = append(failed, failure{name: "startup", msg: "not ready"})
	}
	respond(w, failed)
}

// respond writes {"status":"ok"} or {"status":"unhealthy","checks":{...}}.
func respond(w http.ResponseWriter, failed []failure) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.Obj(func(e *jx.Encoder) {
		if len(failed) == 0 {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			return
		}
		status = http.StatusServiceUnavailable
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, f := range failed {
					e.Field(f.name, func(e *jx.Encoder) { e.Str(f.msg) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
