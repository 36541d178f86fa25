package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/clock"
	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/service"
)

var t0 = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (n *recordingNotifier) NotifyDue(_ context.Context, email, title string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[email] {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, email+":"+title)
	return nil
}

func newService(store *memStore, n service.Notifier) (*service.Service, *clock.Fixed) {
	if n == nil {
		n = &recordingNotifier{}
	}
	clk := clock.NewFixed(t0)
	cfg := service.DefaultConfig()
	cfg.RetryBaseDelay = 0
	return service.NewService(store, n, clk, cfg, zap.NewNop()), clk
}

func borrowReq(user string, book model.Book) model.BorrowRequest {
	return model.BorrowRequest{BookUid: book.BookUid, UserID: user, UserEmail: user + "@mail.test"}
}

func books(n, copies int) []model.Book {
	bs := make([]model.Book, n)
	for i := range bs {
		bs[i] = model.Book{
			BookUid:         uuid.New(),
			Title:           fmt.Sprintf("book-%d", i),
			TotalCopies:     copies,
			AvailableCopies: copies,
		}
	}
	return bs
}

func TestService_BorrowBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("takes a copy and sets the due date", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 2)...)
		svc, _ := newService(store, nil)
		book := store.books[0]

		b, err := svc.BorrowBook(ctx, borrowReq("alice", book))
		require.NoError(t, err)
		require.Equal(t, t0, b.BorrowedAt)
		require.Equal(t, t0.Add(14*day), b.DueDate)
		require.Nil(t, b.ReturnedAt)
		require.Equal(t, "alice", b.UserID)
		require.Equal(t, book.BookUid, b.BookUid)
		require.NotEqual(t, uuid.Nil, b.BorrowingUid)
		require.Equal(t, 1, store.book(book.BookUid).AvailableCopies)
		require.NoError(t, store.checkInvariants())
	})

	t.Run("unknown book", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 1)...)
		svc, _ := newService(store, nil)

		_, err := svc.BorrowBook(ctx, model.BorrowRequest{BookUid: uuid.New(), UserID: "alice"})
		require.ErrorIs(t, err, errs.ErrBookNotFound)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("no copies left", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 1)...)
		svc, _ := newService(store, nil)
		book := store.books[0]

		_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
		require.NoError(t, err)
		_, err = svc.BorrowBook(ctx, borrowReq("bob", book))
		require.ErrorIs(t, err, errs.ErrNoCopies)
		require.ErrorIs(t, err, errs.ErrConflict)
		require.Equal(t, 0, store.book(book.BookUid).AvailableCopies)
	})

	t.Run("same book twice", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 3)...)
		svc, _ := newService(store, nil)
		book := store.books[0]

		_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
		require.NoError(t, err)
		_, err = svc.BorrowBook(ctx, borrowReq("alice", book))
		require.ErrorIs(t, err, errs.ErrAlreadyBorrowed)
		require.ErrorIs(t, err, errs.ErrConflict)
		require.Equal(t, 2, store.book(book.BookUid).AvailableCopies)
	})

	t.Run("limit of active borrows", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(4, 1)...)
		svc, _ := newService(store, nil)
		for _, b := range store.books[:3] {
			_, err := svc.BorrowBook(ctx, borrowReq("alice", b))
			require.NoError(t, err)
		}

		fourth := store.books[3]
		_, err := svc.BorrowBook(ctx, borrowReq("alice", fourth))
		require.ErrorIs(t, err, errs.ErrBorrowLimit)
		require.ErrorIs(t, err, errs.ErrPolicyViolation)
		require.Equal(t, 1, store.book(fourth.BookUid).AvailableCopies)
		require.Equal(t, 3, store.activeCount("alice"))

		// other users are unaffected
		_, err = svc.BorrowBook(ctx, borrowReq("bob", fourth))
		require.NoError(t, err)
	})

	t.Run("pending fine blocks borrowing until paid", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(2, 1)...)
		svc, clk := newService(store, nil)
		first, second := store.books[0], store.books[1]

		_, err := svc.BorrowBook(ctx, borrowReq("alice", first))
		require.NoError(t, err)
		clk.Advance(15 * day)
		res, err := svc.ReturnBook(ctx, "alice", first.BookUid)
		require.NoError(t, err)
		require.NotNil(t, res.Fine)

		_, err = svc.BorrowBook(ctx, borrowReq("alice", second))
		require.ErrorIs(t, err, errs.ErrUnpaidFines)
		require.ErrorIs(t, err, errs.ErrPolicyViolation)
		require.Equal(t, 1, store.book(second.BookUid).AvailableCopies)
		require.Equal(t, 0, store.activeCount("alice"))

		_, err = svc.PayFine(ctx, "alice", res.Fine.FineUid, model.PaymentMethodCash)
		require.NoError(t, err)
		_, err = svc.BorrowBook(ctx, borrowReq("alice", second))
		require.NoError(t, err)
	})
}

func TestService_BorrowBook_LastCopyRace(t *testing.T) {
	t.Parallel()
	store := newMemStore(books(1, 1)...)
	svc, _ := newService(store, nil)
	book := store.books[0]

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errCh = make(chan error, 2)
	)
	for _, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			<-start
			_, err := svc.BorrowBook(context.Background(), borrowReq(user, book))
			errCh <- err
		}(user)
	}
	close(start)
	wg.Wait()
	close(errCh)

	var ok, conflict int
	for err := range errCh {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errs.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, conflict)
	require.Equal(t, 0, store.book(book.BookUid).AvailableCopies)
	require.NoError(t, store.checkInvariants())
}

func TestService_ConcurrentLoadKeepsCounters(t *testing.T) {
	t.Parallel()
	store := newMemStore(books(2, 3)...)
	svc, _ := newService(store, nil)
	ctx := context.Background()
	catalog := []model.Book{store.books[0], store.books[1]}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%5)
			book := catalog[i%2]
			if _, err := svc.BorrowBook(ctx, borrowReq(user, book)); err != nil {
				assert.True(t, errs.IsBusiness(err), err)
			}
			if i%3 == 0 {
				if _, err := svc.ReturnBook(ctx, user, book.BookUid); err != nil {
					assert.ErrorIs(t, err, errs.ErrNotFound)
				}
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, store.checkInvariants())
}

func TestService_ReturnBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		after    time.Duration
		wantFine float64
	}{
		{name: "before due", after: 10 * day},
		{name: "exactly at due", after: 14 * day},
		{name: "one millisecond late", after: 14*day + time.Millisecond, wantFine: 1},
		{name: "three days late", after: 17 * day, wantFine: 3},
		{name: "three days and an hour late", after: 17*day + time.Hour, wantFine: 4},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newMemStore(books(1, 2)...)
			svc, clk := newService(store, nil)
			book := store.books[0]

			_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
			require.NoError(t, err)
			require.Equal(t, 1, store.book(book.BookUid).AvailableCopies)

			clk.Advance(tt.after)
			res, err := svc.ReturnBook(ctx, "alice", book.BookUid)
			require.NoError(t, err)
			require.NotNil(t, res.Borrowing.ReturnedAt)
			require.Equal(t, t0.Add(tt.after), *res.Borrowing.ReturnedAt)
			require.Equal(t, 2, store.book(book.BookUid).AvailableCopies)

			if tt.wantFine == 0 {
				require.Nil(t, res.Fine)
				return
			}
			require.NotNil(t, res.Fine)
			require.Equal(t, tt.wantFine, res.Fine.Amount)
			require.Equal(t, model.FineStatusPending, res.Fine.Status)
			require.Equal(t, "alice", res.Fine.UserID)
			require.Equal(t, res.Borrowing.BorrowingUid, res.Fine.BorrowingUid)
		})
	}
}

func TestService_ReturnBook_Twice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(books(1, 1)...)
	svc, clk := newService(store, nil)
	book := store.books[0]

	_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
	require.NoError(t, err)
	clk.Advance(20 * day)

	_, err = svc.ReturnBook(ctx, "alice", book.BookUid)
	require.NoError(t, err)
	_, err = svc.ReturnBook(ctx, "alice", book.BookUid)
	require.ErrorIs(t, err, errs.ErrBorrowingNotFound)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.Equal(t, 1, store.book(book.BookUid).AvailableCopies)
	fines, err := svc.GetPaymentHistory(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, fines.Items, 1)
	require.NoError(t, store.checkInvariants())
}

func TestService_ReturnBook_OtherUsersBorrowing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(books(1, 1)...)
	svc, _ := newService(store, nil)
	book := store.books[0]

	_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
	require.NoError(t, err)

	_, err = svc.ReturnBook(ctx, "mallory", book.BookUid)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, 0, store.book(book.BookUid).AvailableCopies)
}

func TestService_TxRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	serialization := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	deadlock := &pgconn.PgError{Code: pgerrcode.DeadlockDetected}

	t.Run("transient failures are retried", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 2)...)
		store.commitErrs = []error{serialization, deadlock}
		svc, _ := newService(store, nil)
		book := store.books[0]

		_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
		require.NoError(t, err)
		require.Equal(t, 3, store.txCount())
		require.Equal(t, 1, store.book(book.BookUid).AvailableCopies)
		require.Equal(t, 1, store.activeCount("alice"))
	})

	t.Run("exhausted retries are internal", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 2)...)
		store.commitErrs = []error{serialization, serialization, serialization}
		svc, _ := newService(store, nil)
		book := store.books[0]

		_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
		require.ErrorIs(t, err, errs.ErrInternal)
		require.False(t, errs.IsBusiness(err))
		require.Equal(t, 3, store.txCount())
		require.Equal(t, 2, store.book(book.BookUid).AvailableCopies)
		require.Equal(t, 0, store.activeCount("alice"))
	})

	t.Run("other store errors are not retried", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 2)...)
		store.commitErrs = []error{errors.New("conn reset by peer")}
		svc, _ := newService(store, nil)
		book := store.books[0]

		_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
		require.ErrorIs(t, err, errs.ErrInternal)
		require.False(t, strings.Contains(err.Error(), "conn reset"))
		require.Equal(t, 1, store.txCount())
		require.Equal(t, 2, store.book(book.BookUid).AvailableCopies)
	})

	t.Run("business errors are not retried", func(t *testing.T) {
		t.Parallel()
		store := newMemStore(books(1, 2)...)
		svc, _ := newService(store, nil)

		_, err := svc.ReturnBook(ctx, "alice", store.books[0].BookUid)
		require.ErrorIs(t, err, errs.ErrBorrowingNotFound)
		require.Equal(t, 1, store.txCount())
	})
}

func TestService_GetBorrowingHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(books(3, 1)...)
	svc, clk := newService(store, nil)

	// borrowed at t0, t0+1d, t0+2d; the first is returned, the second goes overdue
	for _, b := range store.books {
		_, err := svc.BorrowBook(ctx, borrowReq("alice", b))
		require.NoError(t, err)
		clk.Advance(day)
	}
	clk.Advance(12 * day)
	_, err := svc.ReturnBook(ctx, "alice", store.books[0].BookUid)
	require.NoError(t, err)
	clk.Advance(day)

	tests := []struct {
		name      string
		filter    model.HistoryFilter
		wantBooks []int
		wantTotal int
	}{
		{name: "all newest first", filter: model.HistoryFilter{}, wantBooks: []int{2, 1, 0}, wantTotal: 3},
		{name: "active", filter: model.HistoryFilter{Status: model.BorrowStatusActive}, wantBooks: []int{2, 1}, wantTotal: 2},
		{name: "returned", filter: model.HistoryFilter{Status: model.BorrowStatusReturned}, wantBooks: []int{0}, wantTotal: 1},
		{name: "overdue", filter: model.HistoryFilter{Status: model.BorrowStatusOverdue}, wantBooks: []int{1}, wantTotal: 1},
		{name: "second page", filter: model.HistoryFilter{Page: 2, Size: 2}, wantBooks: []int{0}, wantTotal: 3},
		{name: "past the end", filter: model.HistoryFilter{Page: 5, Size: 2}, wantBooks: []int{}, wantTotal: 3},
		{name: "huge page", filter: model.HistoryFilter{Page: math.MaxInt, Size: model.MaxPageSize}, wantBooks: []int{}, wantTotal: 3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.filter.UserID = "alice"
			list, err := svc.GetBorrowingHistory(ctx, tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.wantTotal, list.TotalElements)
			require.NotNil(t, list.Items)

			got := make([]int, 0, len(list.Items))
			for _, item := range list.Items {
				for i, b := range store.books {
					if b.BookUid == item.BookUid {
						got = append(got, i)
					}
				}
			}
			require.Equal(t, tt.wantBooks, got)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		list, err := svc.GetBorrowingHistory(ctx, model.HistoryFilter{UserID: "alice", Size: 1000})
		require.NoError(t, err)
		require.Equal(t, model.DefaultPage, list.Page)
		require.Equal(t, model.MaxPageSize, list.PageSize)
	})

	t.Run("bad status", func(t *testing.T) {
		t.Parallel()
		_, err := svc.GetBorrowingHistory(ctx, model.HistoryFilter{UserID: "alice", Status: "lost"})
		require.ErrorIs(t, err, errs.ErrInvalidStatus)
	})
}

func TestService_GetBorrowingHistory_StoreError(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.readErr = errors.New("relation does not exist")
	svc, _ := newService(store, nil)

	_, err := svc.GetBorrowingHistory(context.Background(), model.HistoryFilter{UserID: "alice"})
	require.ErrorIs(t, err, errs.ErrInternal)
}

func TestService_Fines(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(books(2, 1)...)
	svc, clk := newService(store, nil)

	for _, b := range store.books {
		_, err := svc.BorrowBook(ctx, borrowReq("alice", b))
		require.NoError(t, err)
	}
	clk.Advance(16 * day)
	first, err := svc.ReturnBook(ctx, "alice", store.books[0].BookUid)
	require.NoError(t, err)
	clk.Advance(day)
	second, err := svc.ReturnBook(ctx, "alice", store.books[1].BookUid)
	require.NoError(t, err)

	pending, err := svc.GetFines(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending.Items, 2)
	require.Equal(t, 5.0, pending.Total)
	require.Equal(t, second.Fine.FineUid, pending.Items[0].FineUid)

	_, err = svc.PayFine(ctx, "bob", first.Fine.FineUid, model.PaymentMethodCash)
	require.ErrorIs(t, err, errs.ErrFineNotFound)

	paid, err := svc.PayFine(ctx, "alice", first.Fine.FineUid, model.PaymentMethodCreditCard)
	require.NoError(t, err)
	require.Equal(t, model.FineStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentMethod)
	require.Equal(t, model.PaymentMethodCreditCard, *paid.PaymentMethod)

	_, err = svc.PayFine(ctx, "alice", first.Fine.FineUid, model.PaymentMethodCash)
	require.ErrorIs(t, err, errs.ErrFineNotFound)

	pending, err = svc.GetFines(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	require.Equal(t, 3.0, pending.Total)

	history, err := svc.GetPaymentHistory(ctx, "alice", model.FineStatusPaid)
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	require.Equal(t, first.Fine.FineUid, history.Items[0].FineUid)

	_, err = svc.GetPaymentHistory(ctx, "alice", "REFUNDED")
	require.ErrorIs(t, err, errs.ErrInvalidStatus)

	empty, err := svc.GetFines(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, empty.Items)
	require.Zero(t, empty.Total)
}

func TestService_SettleFine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(books(1, 1)...)
	svc, clk := newService(store, nil)
	book := store.books[0]

	_, err := svc.BorrowBook(ctx, borrowReq("alice", book))
	require.NoError(t, err)
	clk.Advance(15 * day)
	res, err := svc.ReturnBook(ctx, "alice", book.BookUid)
	require.NoError(t, err)
	fineUid := res.Fine.FineUid

	err = svc.SettleFine(ctx, model.FineSettlement{
		FineUid: fineUid, UserID: "alice", Status: model.FineStatusFailed, PaymentMethod: model.PaymentMethodDebitCard,
	})
	require.NoError(t, err)
	pending, err := svc.GetFines(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)

	err = svc.SettleFine(ctx, model.FineSettlement{
		FineUid: fineUid, UserID: "alice", Status: model.FineStatusPaid, PaymentMethod: model.PaymentMethodDebitCard,
	})
	require.NoError(t, err)
	pending, err = svc.GetFines(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, pending.Items)

	err = svc.SettleFine(ctx, model.FineSettlement{FineUid: fineUid, UserID: "alice", Status: model.FineStatusPaid})
	require.ErrorIs(t, err, errs.ErrFineNotFound)

	err = svc.SettleFine(ctx, model.FineSettlement{FineUid: fineUid, UserID: "alice", Status: "UNKNOWN"})
	require.ErrorIs(t, err, errs.ErrInvalidStatus)
}

func TestService_ScanDueTomorrow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemStore(books(5, 1)...)
	notifier := &recordingNotifier{failFor: map[string]bool{"carol@mail.test": true}}
	svc, clk := newService(store, notifier)

	// due dates relative to the scan at t0: +1d, +1d23h, +2d, +12h, and +1d returned
	borrow := func(user string, book model.Book, due time.Duration) {
		clk.Set(t0.Add(due - 14*day))
		_, err := svc.BorrowBook(ctx, borrowReq(user, book))
		require.NoError(t, err)
	}
	borrow("alice", store.books[0], day)
	borrow("carol", store.books[1], day+23*time.Hour)
	borrow("bob", store.books[2], 2*day)
	borrow("dave", store.books[3], 12*time.Hour)
	borrow("erin", store.books[4], day)
	_, err := svc.ReturnBook(ctx, "erin", store.books[4].BookUid)
	require.NoError(t, err)

	clk.Set(t0)
	count, err := svc.ScanDueTomorrow(ctx)
	require.NoError(t, err)
	// carol's reminder fails but is still counted as processed
	require.Equal(t, 2, count)
	require.Equal(t, []string{"alice@mail.test:book-0"}, notifier.sent)
}

func TestService_ScanDueTomorrow_StoreError(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.readErr = errors.New("timeout")
	svc, _ := newService(store, nil)

	count, err := svc.ScanDueTomorrow(context.Background())
	require.ErrorIs(t, err, errs.ErrInternal)
	require.Zero(t, count)
}
