package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/metrics"
)

// DefaultSweepInterval is how often expired rate limit windows are dropped
const DefaultSweepInterval = time.Minute

// Sweepable is a window store that can drop expired entries
type Sweepable interface {
	Sweep(now time.Time) (removed, remaining int)
}

// WindowSweeper periodically discards rate limit windows of inactive clients
type WindowSweeper struct {
	store    Sweepable
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewWindowSweeper creates a new window sweeper
func NewWindowSweeper(store Sweepable, log logger.Logger, interval time.Duration) *WindowSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &WindowSweeper{
		store:    store,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (ws *WindowSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(ws.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ws.Sweep()
			case <-ws.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (ws *WindowSweeper) Stop() {
	close(ws.stopCh)
}

// Sweep drops every window that has ended
func (ws *WindowSweeper) Sweep() int {
	removed, remaining := ws.store.Sweep(ws.now())
	metrics.TrackedWindows.Set(float64(remaining))

	if removed > 0 {
		ws.logger.Debug("rate limit windows swept",
			logger.Int("removed", removed),
			logger.Int("remaining", remaining))
	}
	return removed
}
