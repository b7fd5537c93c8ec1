//go:build unit || e2e

package builder

import (
	"time"

	"library-api/internal/domain/borrow"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

type BorrowBuilder struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BookID       uuid.UUID
	BorrowedAt   time.Time
	DueAt        time.Time
	ReturnedAt   *time.Time
	Status       string
	RenewalCount int32
	FineCents    *int64
}

func NewBorrowBuilder() *BorrowBuilder {
	borrowedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return &BorrowBuilder{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		BookID:       uuid.New(),
		BorrowedAt:   borrowedAt,
		DueAt:        borrowedAt.Add(borrow.LoanPeriod),
		Status:       "active",
		RenewalCount: 0,
	}
}

func (b *BorrowBuilder) With(mutate func(*BorrowBuilder)) *BorrowBuilder {
	mutate(b)
	return b
}

func (b *BorrowBuilder) BuildDomain() *borrow.Borrow {
	return borrow.ReconstructBorrow(
		b.ID, b.UserID, b.BookID,
		b.BorrowedAt, b.DueAt, b.ReturnedAt,
		borrow.Status(b.Status), b.RenewalCount, b.FineCents,
	)
}

func (b *BorrowBuilder) BuildSnapshot() *shared.BorrowSnapshot {
	return &shared.BorrowSnapshot{
		ID:           b.ID,
		UserID:       b.UserID,
		BookID:       b.BookID,
		BorrowedAt:   b.BorrowedAt,
		DueAt:        b.DueAt,
		ReturnedAt:   b.ReturnedAt,
		Status:       b.Status,
		RenewalCount: b.RenewalCount,
		FineCents:    b.FineCents,
	}
}

func (b *BorrowBuilder) BuildReadModel() *queries.BorrowView {
	return &queries.BorrowView{
		ID:           b.ID,
		UserID:       b.UserID,
		UserEmail:    "student@example.com",
		BookID:       b.BookID,
		BookTitle:    "The Go Programming Language",
		BorrowedAt:   b.BorrowedAt,
		DueAt:        b.DueAt,
		ReturnedAt:   b.ReturnedAt,
		Status:       b.Status,
		RenewalCount: b.RenewalCount,
		FineCents:    b.FineCents,
	}
}
