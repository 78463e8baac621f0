package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

// DefaultStaleEnrollment is how long a provisioned but never confirmed
// second factor is kept.
const DefaultStaleEnrollment = 24 * time.Hour

// HousekeepingService periodically clears expired login locks and drops
// abandoned second factor enrollments.
type HousekeepingService struct {
	Store           store.Store
	Logger          *slog.Logger
	Interval        time.Duration
	StaleEnrollment time.Duration
	Now             func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A zero interval
// defaults to one hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:           store,
		Logger:          logger,
		Interval:        interval,
		StaleEnrollment: DefaultStaleEnrollment,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to end it.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop signals the worker and waits for an in-progress pass to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs one pass. Each step is independent; a failure in one
// does not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	cleared, err := s.Store.Principals().ClearExpiredLocks(ctx, now)
	if err != nil {
		s.Logger.Error("failed to clear expired login locks", "error", err)
	} else if cleared > 0 {
		s.Logger.Debug("cleared expired login locks", "count", cleared)
	}

	stale := s.StaleEnrollment
	if stale <= 0 {
		stale = DefaultStaleEnrollment
	}
	dropped, err := s.Store.SecondFactors().DeleteStaleProvisioned(ctx, now.Add(-stale))
	if err != nil {
		s.Logger.Error("failed to delete stale second factor enrollments", "error", err)
	} else if dropped > 0 {
		s.Logger.Debug("deleted stale second factor enrollments", "count", dropped)
	}

	s.Logger.Info("housekeeping cleanup completed", "locks_cleared", cleared, "enrollments_dropped", dropped)
}
