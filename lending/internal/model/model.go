package model

import (
	"time"

	"github.com/google/uuid"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Book struct {
	ID              int       `json:"-" db:"id"`
	BookUid         uuid.UUID `json:"bookUid" db:"book_uid"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Title           string    `json:"title" db:"title"`
	TotalCopies     int       `json:"totalCopies" db:"total_copies"`
	AvailableCopies int       `json:"availableCopies" db:"available_copies"`
}

// Borrowing is one checkout of one copy. Active while ReturnedAt is nil.
type Borrowing struct {
	ID           int        `json:"-" db:"id"`
	BorrowingUid uuid.UUID  `json:"borrowingUid" db:"borrowing_uid"`
	UserID       string     `json:"userId" db:"user_id"`
	UserEmail    string     `json:"-" db:"user_email"`
	BookID       int        `json:"-" db:"book_id"`
	BookUid      uuid.UUID  `json:"bookUid" db:"book_uid"`
	BookTitle    string     `json:"bookTitle" db:"book_title"`
	BorrowedAt   time.Time  `json:"borrowedAt" db:"borrowed_at"`
	DueDate      time.Time  `json:"dueDate" db:"due_date"`
	ReturnedAt   *time.Time `json:"returnedAt" db:"returned_at"`
}

type BorrowRequest struct {
	BookUid   uuid.UUID `json:"bookUid" validate:"required"`
	UserID    string    `json:"-"`
	UserEmail string    `json:"-"`
}

func (b Borrowing) Active() bool {
	return b.ReturnedAt == nil
}

func (b Borrowing) Overdue(now time.Time) bool {
	return b.Active() && b.DueDate.Before(now)
}

type BorrowStatus string

const (
	BorrowStatusAll      BorrowStatus = ""
	BorrowStatusActive   BorrowStatus = "active"
	BorrowStatusReturned BorrowStatus = "returned"
	BorrowStatusOverdue  BorrowStatus = "overdue"
)

func (s BorrowStatus) Valid() bool {
	switch s {
	case BorrowStatusAll, BorrowStatusActive, BorrowStatusReturned, BorrowStatusOverdue:
		return true
	}
	return false
}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps the row offset well inside int range.
	MaxPage         = 1 << 20
)

type HistoryFilter struct {
	UserID string
	Status BorrowStatus
	Page   int
	Size   int
	// Now decides overdue; set by the service from its clock.
	Now time.Time
}

// Normalize applies paging defaults and bounds.
func (f HistoryFilter) Normalize() HistoryFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Size < 1 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	return f
}

func (f HistoryFilter) Offset() int {
	return (f.Page - 1) * f.Size
}

type ListBorrowings struct {
	Paging `json:",inline"`
	Items  []Borrowing `json:"items"`
}

type ReturnResult struct {
	Borrowing Borrowing `json:"borrowing"`
	Fine      *Fine     `json:"fine,omitempty"`
}

type FineStatus string

const (
	FineStatusPending FineStatus = "PENDING"
	FineStatusPaid    FineStatus = "PAID"
	FineStatusFailed  FineStatus = "FAILED"
)

func (s FineStatus) Valid() bool {
	switch s {
	case FineStatusPending, FineStatusPaid, FineStatusFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodCash       PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodCash:
		return true
	}
	return false
}

// Fine is the transaction owed for a late return.
type Fine struct {
	ID            int            `json:"-" db:"id"`
	FineUid       uuid.UUID      `json:"fineUid" db:"fine_uid"`
	UserID        string         `json:"userId" db:"user_id"`
	BorrowingID   int            `json:"-" db:"borrowing_id"`
	BorrowingUid  uuid.UUID      `json:"borrowingUid" db:"borrowing_uid"`
	Amount        float64        `json:"amount" db:"amount"`
	Status        FineStatus     `json:"status" db:"status"`
	PaymentMethod *PaymentMethod `json:"paymentMethod,omitempty" db:"payment_method"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}

type PayFineRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=CREDIT_CARD DEBIT_CARD CASH"`
}

type ListFines struct {
	Items []Fine  `json:"items"`
	Total float64 `json:"total"`
}

type FineSettlement struct {
	FineUid       uuid.UUID
	UserID        string
	Status        FineStatus
	PaymentMethod PaymentMethod
}

// DueReminder is an active borrowing falling due inside the reminder window.
type DueReminder struct {
	BorrowingUid uuid.UUID `db:"borrowing_uid"`
	UserID       string    `db:"user_id"`
	UserEmail    string    `db:"user_email"`
	BookTitle    string    `db:"book_title"`
	DueDate      time.Time `db:"due_date"`
}

// Policy holds the lending rules.
type Policy struct {
	MaxActiveBorrows int
	BorrowDuration   time.Duration
	FinePerDay       float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxActiveBorrows: 3,
		BorrowDuration:   14 * 24 * time.Hour,
		FinePerDay:       1,
	}
}
