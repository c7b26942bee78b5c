// Package ratelimit implements a fixed-window admission gate keyed by client address.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultLimit  = 250
	DefaultWindow = time.Minute
)

// Policy bounds how many requests one key may make per window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicy is 250 requests per minute.
func DefaultPolicy() Policy {
	return Policy{Limit: DefaultLimit, Window: DefaultWindow}
}

func (p Policy) normalize() Policy {
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	return p
}

// Header renders the policy for the RateLimit-Policy header, e.g. "250;w=60".
func (p Policy) Header() string {
	return fmt.Sprintf("%d;w=%d", p.Limit, int(p.Window.Seconds()))
}

// Window is the state of one key's current window after a hit.
type Window struct {
	Count   int
	ResetAt time.Time
}

// Store counts hits per key in fixed windows. The window for a key starts at
// its first hit and lasts the given duration.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error)
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// ResetSeconds rounds ResetAfter up to whole seconds, at least 1.
func (d Decision) ResetSeconds() int {
	sec := int((d.ResetAfter + time.Second - 1) / time.Second)
	if sec < 1 {
		sec = 1
	}
	return sec
}

// Limiter applies a Policy on top of a Store.
type Limiter struct {
	policy Policy
	store  Store
	now    func() time.Time
}

// New returns a limiter; a nil store means an in-memory one.
func New(policy Policy, store Store) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{policy: policy.normalize(), store: store, now: time.Now}
}

// WithClock overrides the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Policy() Policy { return l.policy }

// Allow records a hit for key and reports whether it is within the limit.
// On store failure the returned decision admits the request and err is set.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	w, err := l.store.Hit(ctx, key, l.policy.Window, now)
	if err != nil {
		return Decision{
			Allowed:    true,
			Limit:      l.policy.Limit,
			Remaining:  l.policy.Limit,
			ResetAfter: l.policy.Window,
		}, fmt.Errorf("rate limit store: %w", err)
	}

	remaining := l.policy.Limit - w.Count
	if remaining < 0 {
		remaining = 0
	}
	reset := w.ResetAt.Sub(now)
	if reset < 0 {
		reset = 0
	}

	return Decision{
		Allowed:    w.Count <= l.policy.Limit,
		Limit:      l.policy.Limit,
		Remaining:  remaining,
		ResetAfter: reset,
	}, nil
}
