package service_test

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
)

// memStore is an in-memory repository. Transactions run one at a time and
// roll back on error, which is as strong as serializable isolation.
type memStore struct {
	mu         sync.Mutex
	books      []model.Book
	borrowings []model.Borrowing
	fines      []model.Fine
	seq        int

	// commitErrs are returned at commit, one per transaction, rolling it back.
	commitErrs []error
	txs        int
	readErr    error
}

var _ repository.Repository = (*memStore)(nil)

func newMemStore(books ...model.Book) *memStore {
	m := &memStore{}
	for _, b := range books {
		m.seq++
		b.ID = m.seq
		if b.BookUid == uuid.Nil {
			b.BookUid = uuid.New()
		}
		m.books = append(m.books, b)
	}
	return m
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++
	if err := ctx.Err(); err != nil {
		return err
	}

	books, borrowings, fines, seq := slices.Clone(m.books), slices.Clone(m.borrowings), slices.Clone(m.fines), m.seq
	rollback := func() {
		m.books, m.borrowings, m.fines, m.seq = books, borrowings, fines, seq
	}

	if err := fn(ctx, memTx{m: m}); err != nil {
		rollback()
		return err
	}
	if len(m.commitErrs) > 0 {
		err := m.commitErrs[0]
		m.commitErrs = m.commitErrs[1:]
		if err != nil {
			rollback()
			return err
		}
	}
	return nil
}

func (m *memStore) book(uid uuid.UUID) model.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.BookUid == uid {
			return b
		}
	}
	return model.Book{}
}

func (m *memStore) txCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs
}

func (m *memStore) activeCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.borrowings {
		if b.UserID == userID && b.Active() {
			n++
		}
	}
	return n
}

// checkInvariants reports the first broken counter or active-borrow invariant.
func (m *memStore) checkInvariants() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
			return errors.New("available copies out of range for " + b.Title)
		}
		active := 0
		for _, br := range m.borrowings {
			if br.BookID == b.ID && br.Active() {
				active++
			}
		}
		if b.AvailableCopies+active != b.TotalCopies {
			return errors.New("copies leaked for " + b.Title)
		}
	}
	seen := map[[2]any]bool{}
	for _, br := range m.borrowings {
		if !br.Active() {
			continue
		}
		k := [2]any{br.UserID, br.BookID}
		if seen[k] {
			return errors.New("two active borrowings of one book by " + br.UserID)
		}
		seen[k] = true
	}
	return nil
}

func (m *memStore) GetBook(_ context.Context, bookUid uuid.UUID) (model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m: m}.LockBook(context.Background(), bookUid)
}

func (m *memStore) ListBorrowings(_ context.Context, filter model.HistoryFilter) ([]model.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	items := m.history(filter)
	from := min(filter.Offset(), len(items))
	to := min(from+filter.Size, len(items))
	return items[from:to], nil
}

func (m *memStore) CountBorrowings(_ context.Context, filter model.HistoryFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	return len(m.history(filter)), nil
}

func (m *memStore) history(filter model.HistoryFilter) []model.Borrowing {
	var items []model.Borrowing
	for _, b := range m.borrowings {
		if b.UserID != filter.UserID {
			continue
		}
		switch filter.Status {
		case model.BorrowStatusActive:
			if !b.Active() {
				continue
			}
		case model.BorrowStatusReturned:
			if b.Active() {
				continue
			}
		case model.BorrowStatusOverdue:
			if !b.Overdue(filter.Now) {
				continue
			}
		}
		items = append(items, b)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].BorrowedAt.Equal(items[j].BorrowedAt) {
			return items[i].BorrowedAt.After(items[j].BorrowedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items
}

func (m *memStore) ListDueBetween(_ context.Context, from, to time.Time) ([]model.DueReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	var due []model.DueReminder
	for _, b := range m.borrowings {
		if !b.Active() || b.DueDate.Before(from) || !b.DueDate.Before(to) {
			continue
		}
		due = append(due, model.DueReminder{
			BorrowingUid: b.BorrowingUid,
			UserID:       b.UserID,
			UserEmail:    b.UserEmail,
			BookTitle:    b.BookTitle,
			DueDate:      b.DueDate,
		})
	}
	return due, nil
}

func (m *memStore) ListFines(_ context.Context, userID string, status model.FineStatus) ([]model.Fine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	var fines []model.Fine
	for _, f := range m.fines {
		if f.UserID == userID && (status == "" || f.Status == status) {
			fines = append(fines, f)
		}
	}
	sort.Slice(fines, func(i, j int) bool {
		if !fines[i].CreatedAt.Equal(fines[j].CreatedAt) {
			return fines[i].CreatedAt.After(fines[j].CreatedAt)
		}
		return fines[i].ID > fines[j].ID
	})
	return fines, nil
}

// memTx assumes memStore.mu is held.
type memTx struct {
	m *memStore
}

func (t memTx) LockBook(_ context.Context, bookUid uuid.UUID) (model.Book, error) {
	for _, b := range t.m.books {
		if b.BookUid == bookUid {
			return b, nil
		}
	}
	return model.Book{}, errs.ErrBookNotFound
}

func (t memTx) HasActiveBorrowing(_ context.Context, userID string, bookID int) (bool, error) {
	for _, b := range t.m.borrowings {
		if b.UserID == userID && b.BookID == bookID && b.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) CountActiveBorrowings(_ context.Context, userID string) (int, error) {
	n := 0
	for _, b := range t.m.borrowings {
		if b.UserID == userID && b.Active() {
			n++
		}
	}
	return n, nil
}

func (t memTx) HasPendingFine(_ context.Context, userID string) (bool, error) {
	for _, f := range t.m.fines {
		if f.UserID == userID && f.Status == model.FineStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) TakeCopy(_ context.Context, bookID int) error {
	for i := range t.m.books {
		if t.m.books[i].ID == bookID && t.m.books[i].AvailableCopies > 0 {
			t.m.books[i].AvailableCopies--
			return nil
		}
	}
	return errs.ErrNoCopies
}

func (t memTx) PutCopy(_ context.Context, bookID int) error {
	for i := range t.m.books {
		b := &t.m.books[i]
		if b.ID == bookID && b.AvailableCopies < b.TotalCopies {
			b.AvailableCopies++
			return nil
		}
	}
	return errors.New("available copies already at total")
}

func (t memTx) CreateBorrowing(_ context.Context, b model.Borrowing) (model.Borrowing, error) {
	if ok, _ := t.HasActiveBorrowing(context.Background(), b.UserID, b.BookID); ok {
		return model.Borrowing{}, errs.ErrAlreadyBorrowed
	}
	for _, book := range t.m.books {
		if book.ID == b.BookID {
			b.BookUid, b.BookTitle = book.BookUid, book.Title
		}
	}
	t.m.seq++
	b.ID = t.m.seq
	t.m.borrowings = append(t.m.borrowings, b)
	return b, nil
}

func (t memTx) LockActiveBorrowing(_ context.Context, userID string, bookUid uuid.UUID) (model.Borrowing, error) {
	for _, b := range t.m.borrowings {
		if b.UserID == userID && b.BookUid == bookUid && b.Active() {
			return b, nil
		}
	}
	return model.Borrowing{}, errs.ErrBorrowingNotFound
}

func (t memTx) MarkReturned(_ context.Context, borrowingID int, at time.Time) (model.Borrowing, error) {
	for i, b := range t.m.borrowings {
		if b.ID == borrowingID && b.Active() {
			b.ReturnedAt = &at
			t.m.borrowings[i] = b
			return b, nil
		}
	}
	return model.Borrowing{}, errs.ErrBorrowingNotFound
}

func (t memTx) CreateFine(_ context.Context, f model.Fine) (model.Fine, error) {
	for _, existing := range t.m.fines {
		if existing.BorrowingID == f.BorrowingID {
			return model.Fine{}, errors.New("duplicate fine for borrowing")
		}
	}
	for _, b := range t.m.borrowings {
		if b.ID == f.BorrowingID {
			f.BorrowingUid = b.BorrowingUid
		}
	}
	t.m.seq++
	f.ID = t.m.seq
	t.m.fines = append(t.m.fines, f)
	return f, nil
}

func (t memTx) LockPendingFine(_ context.Context, userID string, fineUid uuid.UUID) (model.Fine, error) {
	for _, f := range t.m.fines {
		if f.FineUid == fineUid && f.UserID == userID && f.Status == model.FineStatusPending {
			return f, nil
		}
	}
	return model.Fine{}, errs.ErrFineNotFound
}

func (t memTx) SettleFine(_ context.Context, fineID int, status model.FineStatus, method model.PaymentMethod, at time.Time) (model.Fine, error) {
	for i, f := range t.m.fines {
		if f.ID == fineID && f.Status == model.FineStatusPending {
			f.Status, f.UpdatedAt = status, at
			if method != "" {
				f.PaymentMethod = &method
			}
			t.m.fines[i] = f
			return f, nil
		}
	}
	return model.Fine{}, errs.ErrFineNotFound
}
