package retention

import (
	"context"
	"log/slog"
	"time"
)

// Purger permanently removes files deleted before a cutoff.
type Purger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// Service periodically purges soft-deleted files once they are older than
// the retention period.
type Service struct {
	repo      Purger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	done      chan struct{}
}

// NewService creates a new retention service.
func NewService(repo Purger, retention, interval time.Duration) *Service {
	return &Service{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start begins the purge loop in a background goroutine.
func (s *Service) Start(ctx context.Context) {
	slog.Info("retention service started", "retention", s.retention, "interval", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		defer close(s.done)

		// Run once immediately on start
		s.RunOnce(ctx)

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				slog.Info("retention service stopping")
				return
			}
		}
	}()
}

// Wait blocks until the retention service has fully stopped.
func (s *Service) Wait() {
	<-s.done
}

// RunOnce runs a single purge cycle and returns how many files were removed.
func (s *Service) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)

	purged, err := s.repo.PurgeDeleted(ctx, cutoff)
	if err != nil {
		slog.Error("failed to purge deleted files", "error", err, "cutoff", cutoff)
		return 0
	}

	if purged == 0 {
		slog.Debug("no deleted files to purge", "cutoff", cutoff)
		return 0
	}

	slog.Info("purge cycle complete", "purged", purged, "cutoff", cutoff)
	return purged
}
