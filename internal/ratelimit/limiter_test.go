package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(p Policy) (*Limiter, *fakeClock) {
	fc := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(p, NewMemoryStore()).WithClock(fc.Now), fc
}

func TestAllowUpToLimit(t *testing.T) {
	l, fc := newTestLimiter(DefaultPolicy())
	ctx := context.Background()

	for i := 1; i <= 250; i++ {
		d, err := l.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be admitted", i)
		}
		if d.Remaining != 250-i {
			t.Fatalf("request %d: Remaining = %d, want %d", i, d.Remaining, 250-i)
		}
		fc.Advance(100 * time.Millisecond)
	}

	d, _ := l.Allow(ctx, "10.0.0.1")
	if d.Allowed {
		t.Error("request 251 should be rejected")
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
}

func TestWindowResets(t *testing.T) {
	l, fc := newTestLimiter(Policy{Limit: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d, _ := l.Allow(ctx, "a"); !d.Allowed {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
	if d, _ := l.Allow(ctx, "a"); d.Allowed {
		t.Fatal("third request should be rejected")
	}

	fc.Advance(59 * time.Second)
	d, _ := l.Allow(ctx, "a")
	if d.Allowed {
		t.Fatal("still inside the window, should be rejected")
	}
	if d.ResetSeconds() != 1 {
		t.Errorf("ResetSeconds() = %d, want 1", d.ResetSeconds())
	}

	fc.Advance(time.Second)
	if d, _ := l.Allow(ctx, "a"); !d.Allowed {
		t.Error("new window should admit")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Policy{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	if d, _ := l.Allow(ctx, "a"); !d.Allowed {
		t.Fatal("first request for a should be admitted")
	}
	if d, _ := l.Allow(ctx, "b"); !d.Allowed {
		t.Error("first request for b should be admitted")
	}
	if d, _ := l.Allow(ctx, "a"); d.Allowed {
		t.Error("second request for a should be rejected")
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration, time.Time) (Window, error) {
	return Window{}, errors.New("connection refused")
}

func TestAllowFailsOpen(t *testing.T) {
	l := New(DefaultPolicy(), failingStore{})

	d, err := l.Allow(context.Background(), "a")
	if err == nil {
		t.Error("Allow() should report the store error")
	}
	if !d.Allowed {
		t.Error("store errors should admit the request")
	}
}

func TestPolicyNormalize(t *testing.T) {
	l := New(Policy{}, nil)
	if got := l.Policy(); got != DefaultPolicy() {
		t.Errorf("Policy() = %+v, want %+v", got, DefaultPolicy())
	}
	if got := l.Policy().Header(); got != "250;w=60" {
		t.Errorf("Header() = %q, want %q", got, "250;w=60")
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, _ = s.Hit(ctx, "old", time.Minute, start)
	_, _ = s.Hit(ctx, "fresh", time.Minute, start.Add(30*time.Second))

	removed, remaining := s.Sweep(start.Add(time.Minute))
	if removed != 1 || remaining != 1 {
		t.Errorf("Sweep() = (%d, %d), want (1, 1)", removed, remaining)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStoreConcurrentHits(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Hit(context.Background(), "k", time.Minute, now)
		}()
	}
	wg.Wait()

	w, _ := s.Hit(context.Background(), "k", time.Minute, now)
	if w.Count != 101 {
		t.Errorf("Count = %d, want 101", w.Count)
	}
}
