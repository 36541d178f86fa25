package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
)

// GetFines lists the user's unpaid fines and what they add up to.
func (s *Service) GetFines(ctx context.Context, userID string) (model.ListFines, error) {
	return s.listFines(ctx, userID, model.FineStatusPending)
}

// GetPaymentHistory lists the user's fines, optionally narrowed to one status.
func (s *Service) GetPaymentHistory(ctx context.Context, userID string, status model.FineStatus) (model.ListFines, error) {
	if status != "" && !status.Valid() {
		return model.ListFines{}, errs.ErrInvalidStatus
	}
	return s.listFines(ctx, userID, status)
}

func (s *Service) listFines(ctx context.Context, userID string, status model.FineStatus) (model.ListFines, error) {
	fines, err := s.repo.ListFines(ctx, userID, status)
	if err != nil {
		return model.ListFines{}, s.internal("list fines", err)
	}
	if fines == nil {
		fines = []model.Fine{}
	}
	var total float64
	for _, f := range fines {
		total += f.Amount
	}
	return model.ListFines{
		Items: fines,
		Total: math.Round(total*100) / 100,
	}, nil
}

// PayFine settles one of the user's pending fines.
func (s *Service) PayFine(ctx context.Context, userID string, fineUid uuid.UUID, method model.PaymentMethod) (model.Fine, error) {
	f, err := s.settle(ctx, opPayFine, userID, fineUid, method)
	if err != nil {
		return model.Fine{}, err
	}
	s.log.Info("fine paid",
		zap.String("user", userID),
		zap.Stringer("fine", fineUid),
		zap.String("method", string(method)))
	return f, nil
}

// SettleFine applies a payment processor result. A failed payment leaves the
// fine pending, so the user stays blocked from borrowing.
func (s *Service) SettleFine(ctx context.Context, st model.FineSettlement) error {
	switch st.Status {
	case model.FineStatusPaid:
		if _, err := s.settle(ctx, opSettle, st.UserID, st.FineUid, st.PaymentMethod); err != nil {
			return err
		}
		s.log.Info("fine settled", zap.Stringer("fine", st.FineUid), zap.String("user", st.UserID))
	case model.FineStatusFailed:
		finesSettled.WithLabelValues(string(model.FineStatusFailed)).Inc()
		s.log.Warn("fine payment failed",
			zap.Stringer("fine", st.FineUid),
			zap.String("user", st.UserID),
			zap.String("method", string(st.PaymentMethod)))
	default:
		return errs.ErrInvalidStatus
	}
	return nil
}

func (s *Service) settle(ctx context.Context, op, userID string, fineUid uuid.UUID, method model.PaymentMethod) (model.Fine, error) {
	var paid model.Fine
	err := s.inTx(ctx, op, func(ctx context.Context, tx repository.Tx) error {
		f, err := tx.LockPendingFine(ctx, userID, fineUid)
		if err != nil {
			return err
		}
		paid, err = tx.SettleFine(ctx, f.ID, model.FineStatusPaid, method, s.now())
		return err
	})
	if err != nil {
		return model.Fine{}, err
	}
	finesSettled.WithLabelValues(string(model.FineStatusPaid)).Inc()
	return paid, nil
}
