package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/clock"
)

type Scanner interface {
	ScanDueTomorrow(ctx context.Context) (int, error)
}

// Scheduler runs the due-tomorrow scan once a day at Hour:00 in the clock's location.
type Scheduler struct {
	log     *zap.Logger
	scanner Scanner
	clock   clock.Clock
	hour    int
}

func NewScheduler(scanner Scanner, clk clock.Clock, hour int, log *zap.Logger) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	return &Scheduler{
		log:     log.Named("reminder"),
		scanner: scanner,
		clock:   clk,
		hour:    hour,
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("reminder scheduler started", zap.Int("hour", s.hour))
	for {
		next := NextRun(s.clock.Now(), s.hour)
		timer := time.NewTimer(next.Sub(s.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("reminder scheduler stopped")
			return
		case <-timer.C:
		}

		count, err := s.scanner.ScanDueTomorrow(ctx)
		if err != nil {
			s.log.Error("ScanDueTomorrow", zap.Error(err))
			continue
		}
		s.log.Info("reminders dispatched", zap.Int("count", count), zap.Time("at", next))
	}
}

// NextRun is the first hour:00 strictly after now.
func NextRun(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
	}
	return next
}
