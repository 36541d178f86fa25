package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LendingService interface {
	GetBook(ctx context.Context, bookUid uuid.UUID) (model.Book, error)
	BorrowBook(ctx context.Context, req model.BorrowRequest) (model.Borrowing, error)
	ReturnBook(ctx context.Context, userID string, bookUid uuid.UUID) (model.ReturnResult, error)
	GetBorrowingHistory(ctx context.Context, filter model.HistoryFilter) (model.ListBorrowings, error)

	GetFines(ctx context.Context, userID string) (model.ListFines, error)
	PayFine(ctx context.Context, userID string, fineUid uuid.UUID, method model.PaymentMethod) (model.Fine, error)
	GetPaymentHistory(ctx context.Context, userID string, status model.FineStatus) (model.ListFines, error)
	SettleFine(ctx context.Context, st model.FineSettlement) error

	ScanDueTomorrow(ctx context.Context) (int, error)
}

var _ LendingService = (*service.Service)(nil)
