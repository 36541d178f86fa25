package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/clock"
)

// ScanDueTomorrow notifies every active borrower whose due date falls on the
// next calendar day. Delivery failures are logged and skipped; the result is
// the number of borrowings processed.
func (s *Service) ScanDueTomorrow(ctx context.Context) (int, error) {
	from := clock.StartOfDay(s.clock.Now()).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)

	due, err := s.repo.ListDueBetween(ctx, from, to)
	if err != nil {
		return 0, s.internal(opScan, err)
	}

	for _, d := range due {
		recipient := d.UserEmail
		if recipient == "" {
			recipient = d.UserID
		}
		if err := s.notifier.NotifyDue(ctx, recipient, d.BookTitle, d.DueDate); err != nil {
			remindersTotal.WithLabelValues("failed").Inc()
			s.log.Warn("reminder not delivered",
				zap.Stringer("borrowing", d.BorrowingUid),
				zap.String("user", d.UserID),
				zap.Error(err))
			continue
		}
		remindersTotal.WithLabelValues("sent").Inc()
	}

	s.log.Info("reminder scan done",
		zap.Time("from", from), zap.Time("to", to), zap.Int("count", len(due)))
	return len(due), nil
}
