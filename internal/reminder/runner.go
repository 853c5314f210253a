package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner drives the engine on a fixed cadence. Ticks are aligned to
// wall-clock multiples of the interval: the water due-check matches the
// local minute against the configured interval exactly, so an unaligned
// cadence (ticking at :01, :06, ...) would silently skip every interval.
type Runner struct {
	mu        sync.RWMutex
	engine    *Engine
	interval  time.Duration
	onSummary func(Summary)
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRunner creates a runner. The interval defaults to one minute;
// onSummary, if set, is invoked after every completed run.
func NewRunner(engine *Engine, interval time.Duration, onSummary func(Summary), logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		engine:    engine,
		interval:  interval,
		onSummary: onSummary,
		logger:    logger,
	}
}

// Start begins the tick loop.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		for {
			next := time.Now().UTC().Truncate(r.interval).Add(r.interval)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				// Evaluate at the boundary instant, not the (slightly
				// late) wakeup time, so minute matches are deterministic.
				r.tick(ctx, next)
			}
		}
	}()
}

// Stop gracefully stops the runner.
func (r *Runner) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Runner) tick(ctx context.Context, now time.Time) {
	sum, err := r.engine.Run(ctx, now)
	if err != nil {
		r.logger.Error("reminder run failed", "error", err)
		return
	}
	if r.onSummary != nil {
		r.onSummary(*sum)
	}
}
