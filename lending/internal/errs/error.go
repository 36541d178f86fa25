package errs

import (
	"errors"
)

// Kinds. Every error returned by the service unwraps to exactly one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPolicyViolation = errors.New("policy violation")
	ErrInternal        = errors.New("internal error")
)

var (
	ErrBookNotFound      = newError(ErrNotFound, "book not found")
	ErrBorrowingNotFound = newError(ErrNotFound, "active borrowing not found")
	ErrFineNotFound      = newError(ErrNotFound, "fine not found or already paid")

	ErrNoCopies        = newError(ErrConflict, "no copies available")
	ErrAlreadyBorrowed = newError(ErrConflict, "already borrowed")

	ErrBorrowLimit = newError(ErrPolicyViolation, "borrow limit reached")
	ErrUnpaidFines = newError(ErrPolicyViolation, "unpaid fines")

	ErrUserName      = errors.New("username is required")
	ErrInvalidStatus = errors.New("status is invalid")
)

type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// IsBusiness reports whether err is a rule outcome rather than a failure.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrPolicyViolation)
}
