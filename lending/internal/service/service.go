package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/lending-service/lending/internal/clock"
	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/fine"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
)

// Notifier delivers due-date reminders. Implementations may fail independently.
type Notifier interface {
	NotifyDue(ctx context.Context, userEmail, bookTitle string, dueDate time.Time) error
}

type Config struct {
	Policy model.Policy
	// TxAttempts bounds how often a transaction aborted by the store is rerun.
	TxAttempts     int
	RetryBaseDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Policy:         model.DefaultPolicy(),
		TxAttempts:     3,
		RetryBaseDelay: 10 * time.Millisecond,
	}
}

type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	notifier Notifier
	clock    clock.Clock
	cfg      Config
}

func NewService(repo repository.Repository, notifier Notifier, clk clock.Clock, cfg Config, log *zap.Logger) *Service {
	if cfg.TxAttempts <= 0 {
		cfg.TxAttempts = 1
	}
	return &Service{
		log:      log.Named("service"),
		repo:     repo,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
	}
}

// now is truncated to the store's timestamp precision.
func (s *Service) now() time.Time {
	return s.clock.Now().Truncate(time.Microsecond)
}

// BorrowBook checks eligibility and checks out one copy in a single transaction.
// The book row is locked first so concurrent borrowers of the same book queue up.
func (s *Service) BorrowBook(ctx context.Context, req model.BorrowRequest) (model.Borrowing, error) {
	policy := s.cfg.Policy
	var borrowing model.Borrowing
	err := s.inTx(ctx, opBorrow, func(ctx context.Context, tx repository.Tx) error {
		book, err := tx.LockBook(ctx, req.BookUid)
		if err != nil {
			return err
		}
		if book.AvailableCopies <= 0 {
			return errs.ErrNoCopies
		}

		borrowed, err := tx.HasActiveBorrowing(ctx, req.UserID, book.ID)
		if err != nil {
			return err
		}
		if borrowed {
			return errs.ErrAlreadyBorrowed
		}

		active, err := tx.CountActiveBorrowings(ctx, req.UserID)
		if err != nil {
			return err
		}
		if active >= policy.MaxActiveBorrows {
			return errs.ErrBorrowLimit
		}

		unpaid, err := tx.HasPendingFine(ctx, req.UserID)
		if err != nil {
			return err
		}
		if unpaid {
			return errs.ErrUnpaidFines
		}

		if err = tx.TakeCopy(ctx, book.ID); err != nil {
			return err
		}
		now := s.now()
		borrowing, err = tx.CreateBorrowing(ctx, model.Borrowing{
			BorrowingUid: uuid.New(),
			UserID:       req.UserID,
			UserEmail:    req.UserEmail,
			BookID:       book.ID,
			BorrowedAt:   now,
			DueDate:      now.Add(policy.BorrowDuration),
		})
		return err
	})
	borrowTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return model.Borrowing{}, err
	}

	s.log.Info("book borrowed",
		zap.String("user", req.UserID),
		zap.Stringer("book", req.BookUid),
		zap.Stringer("borrowing", borrowing.BorrowingUid),
		zap.Time("due", borrowing.DueDate))
	return borrowing, nil
}

// ReturnBook closes the caller's active borrowing of the book, issuing a fine when late.
func (s *Service) ReturnBook(ctx context.Context, userID string, bookUid uuid.UUID) (model.ReturnResult, error) {
	var res model.ReturnResult
	err := s.inTx(ctx, opReturn, func(ctx context.Context, tx repository.Tx) error {
		res = model.ReturnResult{}
		borrowing, err := tx.LockActiveBorrowing(ctx, userID, bookUid)
		if err != nil {
			return err
		}

		now := s.now()
		if amount := fine.Compute(borrowing.DueDate, now, s.cfg.Policy.FinePerDay); amount > 0 {
			f, err := tx.CreateFine(ctx, model.Fine{
				FineUid:     uuid.New(),
				UserID:      userID,
				BorrowingID: borrowing.ID,
				Amount:      amount,
				Status:      model.FineStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return err
			}
			res.Fine = &f
		}

		returned, err := tx.MarkReturned(ctx, borrowing.ID, now)
		if err != nil {
			return err
		}
		if err = tx.PutCopy(ctx, borrowing.BookID); err != nil {
			return err
		}
		res.Borrowing = returned
		return nil
	})
	switch {
	case err != nil:
		returnTotal.WithLabelValues(outcome(err)).Inc()
		return model.ReturnResult{}, err
	case res.Fine != nil:
		returnTotal.WithLabelValues("late").Inc()
		fineAmountTotal.Add(res.Fine.Amount)
	default:
		returnTotal.WithLabelValues("on_time").Inc()
	}

	fields := []zap.Field{
		zap.String("user", userID),
		zap.Stringer("book", bookUid),
		zap.Stringer("borrowing", res.Borrowing.BorrowingUid),
	}
	if res.Fine != nil {
		fields = append(fields, zap.Float64("fine", res.Fine.Amount))
	}
	s.log.Info("book returned", fields...)
	return res, nil
}

// GetBorrowingHistory pages through a user's borrowings, newest first.
func (s *Service) GetBorrowingHistory(ctx context.Context, filter model.HistoryFilter) (model.ListBorrowings, error) {
	if !filter.Status.Valid() {
		return model.ListBorrowings{}, errs.ErrInvalidStatus
	}
	filter = filter.Normalize()
	filter.Now = s.now()

	var (
		items []model.Borrowing
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListBorrowings(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountBorrowings(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ListBorrowings{}, s.internal(opHistory, err)
	}
	if items == nil {
		items = []model.Borrowing{}
	}

	return model.ListBorrowings{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

func (s *Service) GetBook(ctx context.Context, bookUid uuid.UUID) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, bookUid)
	if err != nil {
		if errs.IsBusiness(err) {
			return model.Book{}, err
		}
		return model.Book{}, s.internal("get book", err)
	}
	return book, nil
}

func (s *Service) internal(op string, err error) error {
	s.log.Error(op, zap.Error(err))
	return fmt.Errorf("%s: %w", op, errs.ErrInternal)
}
