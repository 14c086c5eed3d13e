package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the position of the failover breaker.
type State int

const (
	// Closed routes every request to the primary limiter.
	Closed State = iota
	// Open routes requests to the fallback until the cool-off expires.
	Open
	// HalfOpen sends one probe to the primary.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Failover serves limits from Primary and switches to Fallback once Primary has
// failed Threshold times in a row. After OpenFor it probes Primary again.
type Failover struct {
	Primary   Limiter
	Fallback  Limiter
	Threshold int
	OpenFor   time.Duration
	Logger    zerolog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewFailover builds a Failover with the given thresholds.
func NewFailover(primary, fallback Limiter, threshold int, openFor time.Duration, logger zerolog.Logger) *Failover {
	if threshold <= 0 {
		threshold = 3
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Failover{Primary: primary, Fallback: fallback, Threshold: threshold, OpenFor: openFor, Logger: logger}
}

// Allow implements Limiter.
func (f *Failover) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if !f.usePrimary() {
		return f.Fallback.Allow(ctx, key, window, max)
	}
	allowed, remaining, reset, err := f.Primary.Allow(ctx, key, window, max)
	f.report(err == nil)
	if err != nil {
		return f.Fallback.Allow(ctx, key, window, max)
	}
	return allowed, remaining, reset, nil
}

// Check reports the primary's health. An open breaker is degraded, not down.
func (f *Failover) Check(ctx context.Context) error {
	if c, ok := f.Primary.(interface{ Check(context.Context) error }); ok {
		if err := c.Check(ctx); err != nil && f.State() != Open {
			return err
		}
	}
	return nil
}

// State returns the current breaker position.
func (f *Failover) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Failover) usePrimary() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Open:
		if f.clock().Sub(f.openedAt) < f.OpenFor {
			return false
		}
		f.transitionLocked(HalfOpen)
		return true
	case HalfOpen:
		// a probe is already in flight
		return false
	default:
		return true
	}
}

func (f *Failover) report(success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if success {
		f.failures = 0
		if f.state != Closed {
			f.transitionLocked(Closed)
		}
		return
	}
	f.failures++
	if f.state == HalfOpen || f.failures >= f.Threshold {
		f.transitionLocked(Open)
	}
}

func (f *Failover) transitionLocked(next State) {
	prev := f.state
	f.state = next
	switch next {
	case Open:
		f.openedAt = f.clock()
	case Closed:
		f.openedAt = time.Time{}
	}
	f.failures = 0
	f.Logger.Info().Str("from_state", prev.String()).Str("to_state", next.String()).Msg("ratelimit_failover")
}

func (f *Failover) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}
