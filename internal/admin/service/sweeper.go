package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/store"
)

// DefaultSweepInterval is how often the sweeper runs.
const DefaultSweepInterval = 24 * time.Hour

// SweeperService periodically expires overdue invites and reaps lapsed
// sessions. One pass runs immediately on Start, then on every tick. A failed
// pass is logged and retried on the next tick; overdue records are still
// rejected at read time, so a delay here never grants extra validity.
type SweeperService struct {
	Store    store.Store
	Interval time.Duration
	Logger   *slog.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func (s *SweeperService) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return DefaultSweepInterval
}

func (s *SweeperService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *SweeperService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Start launches the background loop. Call Stop to end it.
func (s *SweeperService) Start(ctx context.Context) {
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go func() {
		defer close(s.doneCh)

		s.Sweep(ctx)

		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger().Info("sweeper started", "interval", s.interval())
}

// Stop signals the loop to end and waits for the in-flight pass to finish.
func (s *SweeperService) Stop() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.logger().Info("sweeper stopped")
}

// Sweep runs a single pass: overdue invites flip to expired, lapsed sessions
// are deleted. Each step fails independently.
func (s *SweeperService) Sweep(ctx context.Context) {
	log := s.logger()
	now := s.now()

	invites, err := s.Store.Invites().ExpireOverdue(ctx, now)
	if err != nil {
		log.Error("sweep: expiring invites failed", "error", err)
	} else if invites > 0 {
		log.Info("sweep: invites expired", "count", invites)
	}

	sessions, err := s.Store.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		log.Error("sweep: reaping sessions failed", "error", err)
	} else if sessions > 0 {
		log.Info("sweep: sessions reaped", "count", sessions)
	}
}
