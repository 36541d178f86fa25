package service

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
	"github.com/Astemirdum/lending-service/pkg/retry"
)

const (
	opBorrow  = "borrow"
	opReturn  = "return"
	opHistory = "history"
	opPayFine = "pay fine"
	opSettle  = "settle fine"
	opScan    = "reminder scan"
)

// inTx runs fn in one store transaction, rerunning it when the store aborts it
// for serialization or deadlock. Business errors pass through untouched; any
// other failure is logged and reported as ErrInternal.
func (s *Service) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := retry.Do(ctx,
		func(ctx context.Context) error {
			return s.repo.WithTx(ctx, fn)
		},
		retry.WithMaxAttempts(s.cfg.TxAttempts),
		retry.WithBaseDelay(s.cfg.RetryBaseDelay),
		retry.WithRetryIf(retryable),
		retry.WithOnRetry(func(attempt int, err error) {
			txRetries.WithLabelValues(op).Inc()
			s.log.Debug("tx aborted, retrying",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		}),
	)
	if err == nil || errs.IsBusiness(err) {
		return err
	}
	return s.internal(op, err)
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return false
}
