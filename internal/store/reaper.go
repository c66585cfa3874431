package store

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Reaper periodically removes finished uploads once they have been terminal
// for longer than the grace period.
type Reaper struct {
	store    Dispatcher
	grace    time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	done     chan struct{}
}

// NewReaper creates a reaper. It does nothing until Start is called. A nil
// logger uses slog.Default.
func NewReaper(store Dispatcher, grace, interval time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		store:    store,
		grace:    grace,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start prunes once, then keeps pruning on every tick in a background
// goroutine until ctx is done or the store closes.
func (r *Reaper) Start(ctx context.Context) {
	r.logger.Debug("upload reaper started", "interval", r.interval, "grace", r.grace)

	go func() {
		defer close(r.done)
		if !r.prune(ctx) {
			return
		}
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !r.prune(ctx) {
					return
				}
			case <-ctx.Done():
				r.logger.Debug("upload reaper stopping")
				return
			}
		}
	}()
}

// Wait blocks until the reaper has fully stopped.
func (r *Reaper) Wait() {
	<-r.done
}

// prune reports whether the loop should continue.
func (r *Reaper) prune(ctx context.Context) bool {
	before := r.now().Add(-r.grace)
	_, err := r.store.Dispatch(ctx, PruneUploads{Before: before})
	switch {
	case errors.Is(err, ErrClosed):
		r.logger.Debug("store closed, upload reaper stopping")
		return false
	case err != nil && ctx.Err() == nil:
		r.logger.Error("failed to prune uploads", "error", err)
	}
	return true
}
