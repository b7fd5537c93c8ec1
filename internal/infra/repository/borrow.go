package repository

import (
	"context"
	"time"

	"library-api/internal/domain/borrow"
	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/pgconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type BorrowRepository struct{}

func NewBorrowRepository() *BorrowRepository {
	return &BorrowRepository{}
}

func (r *BorrowRepository) Create(ctx context.Context, tx db.DBTX, b *borrow.Borrow) (uuid.UUID, error) {
	sql, args, err := dialect.Insert("borrows").
		Rows(goqu.Record{
			"id":            b.ID(),
			"user_id":       b.UserID(),
			"book_id":       b.BookID(),
			"borrowed_at":   b.BorrowedAt(),
			"due_at":        b.DueAt(),
			"status":        b.Status().String(),
			"renewal_count": b.RenewalCount(),
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build insert borrow query", err)
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create borrow", err)
	}
	return id, nil
}

func (r *BorrowRepository) SaveRenewal(ctx context.Context, tx db.DBTX, id uuid.UUID, dueAt time.Time, renewalCount int32) error {
	sql, args, err := dialect.Update("borrows").
		Set(goqu.Record{
			"due_at":        dueAt,
			"renewal_count": renewalCount,
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("status").Eq(borrow.StatusActive.String()),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build renewal query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to save renewal", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("active borrow not found", nil, infra.KindNotFound)
	}
	return nil
}

// Guarded on status so a returned borrow can never be returned twice,
// even if two staff requests race.
func (r *BorrowRepository) SaveReturn(ctx context.Context, tx db.DBTX, id uuid.UUID, returnedAt time.Time, fineCents *int64) error {
	sql, args, err := dialect.Update("borrows").
		Set(goqu.Record{
			"status":      borrow.StatusReturned.String(),
			"returned_at": returnedAt,
			"fine_cents":  pgconv.Int64PtrToPgtype(fineCents),
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("status").Eq(borrow.StatusActive.String()),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build return query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to save return", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("active borrow not found", nil, infra.KindConflict)
	}
	return nil
}
