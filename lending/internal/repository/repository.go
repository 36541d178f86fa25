package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
)

type Repository interface {
	// WithTx runs fn in one serializable transaction. fn's error rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetBook(ctx context.Context, bookUid uuid.UUID) (model.Book, error)
	ListBorrowings(ctx context.Context, filter model.HistoryFilter) ([]model.Borrowing, error)
	CountBorrowings(ctx context.Context, filter model.HistoryFilter) (int, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.DueReminder, error)
	ListFines(ctx context.Context, userID string, status model.FineStatus) ([]model.Fine, error)
}

// Tx is the unit of work used by borrow, return and fine settlement.
type Tx interface {
	LockBook(ctx context.Context, bookUid uuid.UUID) (model.Book, error)
	HasActiveBorrowing(ctx context.Context, userID string, bookID int) (bool, error)
	CountActiveBorrowings(ctx context.Context, userID string) (int, error)
	HasPendingFine(ctx context.Context, userID string) (bool, error)
	TakeCopy(ctx context.Context, bookID int) error
	PutCopy(ctx context.Context, bookID int) error
	CreateBorrowing(ctx context.Context, b model.Borrowing) (model.Borrowing, error)
	LockActiveBorrowing(ctx context.Context, userID string, bookUid uuid.UUID) (model.Borrowing, error)
	MarkReturned(ctx context.Context, borrowingID int, at time.Time) (model.Borrowing, error)
	CreateFine(ctx context.Context, f model.Fine) (model.Fine, error)
	LockPendingFine(ctx context.Context, userID string, fineUid uuid.UUID) (model.Fine, error)
	SettleFine(ctx context.Context, fineID int, status model.FineStatus, method model.PaymentMethod, at time.Time) (model.Fine, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName      = `books`
	borrowingsTableName = `borrowings`
	finesTableName      = `fines`

	activeBorrowingIndex = `borrowings_one_active_per_book`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	bookColumns = []string{"id", "book_uid", "isbn", "title", "total_copies", "available_copies"}

	borrowingColumns = []string{
		"br.id", "br.borrowing_uid", "br.user_id", "br.user_email", "br.book_id",
		"b.book_uid", "b.title as book_title", "br.borrowed_at", "br.due_date", "br.returned_at",
	}

	fineColumns = []string{
		"f.id", "f.fine_uid", "f.user_id", "f.borrowing_id", "br.borrowing_uid",
		"f.amount", "f.status", "f.payment_method", "f.created_at", "f.updated_at",
	}
)

func selectBorrowings() sq.SelectBuilder {
	return qb.Select(borrowingColumns...).
		From(borrowingsTableName + " br").
		Join(fmt.Sprintf("%s b on b.id = br.book_id", booksTableName))
}

func selectFines() sq.SelectBuilder {
	return qb.Select(fineColumns...).
		From(finesTableName + " f").
		Join(fmt.Sprintf("%s br on br.id = f.borrowing_id", borrowingsTableName))
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		// the request ctx may already be canceled; rollback must still run
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Warn("tx.Rollback", zap.Error(rbErr))
		}
	}()

	if err = fn(ctx, &txRepository{q: tx, log: r.log}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *repository) GetBook(ctx context.Context, bookUid uuid.UUID) (model.Book, error) {
	return getBook(ctx, r.db, bookUid, false)
}

func (r *repository) ListBorrowings(ctx context.Context, filter model.HistoryFilter) ([]model.Borrowing, error) {
	filter = filter.Normalize()
	query, args, err := historyWhere(selectBorrowings(), filter).
		OrderBy("br.borrowed_at desc", "br.id desc").
		Limit(uint64(filter.Size)).
		Offset(uint64(filter.Offset())).
		ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBorrowings", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Borrowing])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return items, nil
}

func (r *repository) CountBorrowings(ctx context.Context, filter model.HistoryFilter) (int, error) {
	query, args, err := historyWhere(qb.Select("count(*)").From(borrowingsTableName+" br"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func historyWhere(q sq.SelectBuilder, filter model.HistoryFilter) sq.SelectBuilder {
	q = q.Where(sq.Eq{"br.user_id": filter.UserID})
	switch filter.Status {
	case model.BorrowStatusActive:
		q = q.Where(sq.Eq{"br.returned_at": nil})
	case model.BorrowStatusReturned:
		q = q.Where(sq.NotEq{"br.returned_at": nil})
	case model.BorrowStatusOverdue:
		q = q.Where(sq.Eq{"br.returned_at": nil}).Where(sq.Lt{"br.due_date": filter.Now})
	}
	return q
}

func (r *repository) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.DueReminder, error) {
	query, args, err := qb.Select("br.borrowing_uid", "br.user_id", "br.user_email", "b.title as book_title", "br.due_date").
		From(borrowingsTableName + " br").
		Join(fmt.Sprintf("%s b on b.id = br.book_id", booksTableName)).
		Where(sq.Eq{"br.returned_at": nil}).
		Where(sq.GtOrEq{"br.due_date": from}).
		Where(sq.Lt{"br.due_date": to}).
		OrderBy("br.due_date", "br.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.DueReminder])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return due, nil
}

func (r *repository) ListFines(ctx context.Context, userID string, status model.FineStatus) ([]model.Fine, error) {
	q := selectFines().Where(sq.Eq{"f.user_id": userID})
	if status != "" {
		q = q.Where(sq.Eq{"f.status": status})
	}
	query, args, err := q.OrderBy("f.created_at desc", "f.id desc").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fines, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Fine])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return fines, nil
}

type txRepository struct {
	q   querier
	log *zap.Logger
}

func (t *txRepository) LockBook(ctx context.Context, bookUid uuid.UUID) (model.Book, error) {
	return getBook(ctx, t.q, bookUid, true)
}

func getBook(ctx context.Context, q querier, bookUid uuid.UUID, forUpdate bool) (model.Book, error) {
	b := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1)
	if forUpdate {
		b = b.Suffix("for update")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	defer rows.Close()

	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (t *txRepository) HasActiveBorrowing(ctx context.Context, userID string, bookID int) (bool, error) {
	const q = `
select exists(select 1 from borrowings
              where user_id = @user_id and book_id = @book_id and returned_at is null)`
	var exists bool
	err := t.q.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "book_id": bookID}).Scan(&exists)
	return exists, err
}

func (t *txRepository) CountActiveBorrowings(ctx context.Context, userID string) (int, error) {
	const q = `select count(*) from borrowings where user_id = @user_id and returned_at is null`
	var count int
	err := t.q.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&count)
	return count, err
}

func (t *txRepository) HasPendingFine(ctx context.Context, userID string) (bool, error) {
	const q = `select exists(select 1 from fines where user_id = @user_id and status = @status)`
	var exists bool
	err := t.q.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "status": model.FineStatusPending}).Scan(&exists)
	return exists, err
}

func (t *txRepository) TakeCopy(ctx context.Context, bookID int) error {
	const q = `
update books
    set available_copies = available_copies - 1
where id = @book_id and available_copies > 0`
	tag, err := t.q.Exec(ctx, q, pgx.NamedArgs{"book_id": bookID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNoCopies
	}
	return nil
}

func (t *txRepository) PutCopy(ctx context.Context, bookID int) error {
	const q = `
update books
    set available_copies = available_copies + 1
where id = @book_id and available_copies < total_copies`
	tag, err := t.q.Exec(ctx, q, pgx.NamedArgs{"book_id": bookID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("book %d: available copies already at total", bookID)
	}
	return nil
}

func (t *txRepository) CreateBorrowing(ctx context.Context, b model.Borrowing) (model.Borrowing, error) {
	query, args, err := qb.Insert(borrowingsTableName).
		Columns("borrowing_uid", "user_id", "user_email", "book_id", "borrowed_at", "due_date").
		Values(b.BorrowingUid, b.UserID, b.UserEmail, b.BookID, b.BorrowedAt, b.DueDate).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}

	var id int
	if err := t.q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == activeBorrowingIndex {
			return model.Borrowing{}, errs.ErrAlreadyBorrowed
		}
		t.log.Error("CreateBorrowing", zap.String("q", query), zap.Any("args", args))
		return model.Borrowing{}, err
	}
	return t.borrowingByID(ctx, id)
}

func (t *txRepository) LockActiveBorrowing(ctx context.Context, userID string, bookUid uuid.UUID) (model.Borrowing, error) {
	query, args, err := selectBorrowings().
		Where(sq.Eq{"br.user_id": userID, "b.book_uid": bookUid, "br.returned_at": nil}).
		Limit(1).
		Suffix("for update of br").
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	return t.collectBorrowing(ctx, query, args)
}

func (t *txRepository) MarkReturned(ctx context.Context, borrowingID int, at time.Time) (model.Borrowing, error) {
	const q = `
update borrowings
    set returned_at = @returned_at
where id = @id and returned_at is null`
	tag, err := t.q.Exec(ctx, q, pgx.NamedArgs{"id": borrowingID, "returned_at": at})
	if err != nil {
		return model.Borrowing{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Borrowing{}, errs.ErrBorrowingNotFound
	}
	return t.borrowingByID(ctx, borrowingID)
}

func (t *txRepository) borrowingByID(ctx context.Context, id int) (model.Borrowing, error) {
	query, args, err := selectBorrowings().Where(sq.Eq{"br.id": id}).ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	return t.collectBorrowing(ctx, query, args)
}

func (t *txRepository) collectBorrowing(ctx context.Context, query string, args []any) (model.Borrowing, error) {
	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer rows.Close()

	borrowing, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Borrowing])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Borrowing{}, errs.ErrBorrowingNotFound
		}
		return model.Borrowing{}, err
	}
	return borrowing, nil
}

func (t *txRepository) CreateFine(ctx context.Context, f model.Fine) (model.Fine, error) {
	query, args, err := qb.Insert(finesTableName).
		Columns("fine_uid", "user_id", "borrowing_id", "amount", "status", "created_at", "updated_at").
		Values(f.FineUid, f.UserID, f.BorrowingID, f.Amount, f.Status, f.CreatedAt, f.UpdatedAt).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return model.Fine{}, err
	}

	var id int
	if err := t.q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		t.log.Error("CreateFine", zap.String("q", query), zap.Any("args", args))
		return model.Fine{}, err
	}
	return t.fineWhere(ctx, sq.Eq{"f.id": id}, false)
}

func (t *txRepository) LockPendingFine(ctx context.Context, userID string, fineUid uuid.UUID) (model.Fine, error) {
	return t.fineWhere(ctx, sq.Eq{"f.fine_uid": fineUid, "f.user_id": userID, "f.status": model.FineStatusPending}, true)
}

func (t *txRepository) SettleFine(ctx context.Context, fineID int, status model.FineStatus, method model.PaymentMethod, at time.Time) (model.Fine, error) {
	const q = `
update fines
    set status = @status, payment_method = @payment_method, updated_at = @updated_at
where id = @id and status = @pending`
	var pm *string
	if method != "" {
		s := string(method)
		pm = &s
	}
	args := pgx.NamedArgs{
		"id":             fineID,
		"status":         status,
		"payment_method": pm,
		"updated_at":     at,
		"pending":        model.FineStatusPending,
	}
	tag, err := t.q.Exec(ctx, q, args)
	if err != nil {
		return model.Fine{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Fine{}, errs.ErrFineNotFound
	}
	return t.fineWhere(ctx, sq.Eq{"f.id": fineID}, false)
}

func (t *txRepository) fineWhere(ctx context.Context, pred sq.Eq, forUpdate bool) (model.Fine, error) {
	b := selectFines().Where(pred).Limit(1)
	if forUpdate {
		b = b.Suffix("for update of f")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return model.Fine{}, err
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return model.Fine{}, err
	}
	defer rows.Close()

	f, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Fine])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Fine{}, errs.ErrFineNotFound
		}
		return model.Fine{}, err
	}
	return f, nil
}
