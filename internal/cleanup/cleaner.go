package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper evicts expired state and reports how many entries it removed
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SweepFunc adapts a function to Sweeper
type SweepFunc func(ctx context.Context, now time.Time) (int, error)

// Sweep calls f
func (f SweepFunc) Sweep(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}

// Cleaner periodically runs its sweepers
type Cleaner struct {
	sweepers map[string]Sweeper
	interval time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		sweepers: make(map[string]Sweeper),
		interval: interval,
		now:      time.Now,
	}
}

// Add registers a sweeper under name. Call before Start.
func (c *Cleaner) Add(name string, s Sweeper) {
	c.sweepers[name] = s
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "sweepers", len(c.sweepers))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every sweeper once and returns the total number of evictions
func (c *Cleaner) RunOnce(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	now := c.now()
	total := 0
	for name, s := range c.sweepers {
		removed, err := s.Sweep(ctx, now)
		if err != nil {
			slog.Error("cleanup sweep failed", "sweeper", name, "error", err)
			continue
		}
		if removed > 0 {
			slog.Info("expired entries removed", "sweeper", name, "count", removed)
		}
		total += removed
	}
	return total
}
