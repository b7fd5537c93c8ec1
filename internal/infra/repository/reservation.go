package repository

import (
	"context"
	"time"

	"library-api/internal/domain/reservation"
	"library-api/internal/infra"
	"library-api/internal/infra/db"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type ReservationRepository struct{}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{}
}

// Create relies on the partial unique index over (user_id, book_id)
// WHERE is_active; a duplicate surfaces as KindDuplicateKey.
func (r *ReservationRepository) Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) (uuid.UUID, error) {
	sql, args, err := dialect.Insert("reservations").
		Rows(goqu.Record{
			"id":          res.ID(),
			"user_id":     res.UserID(),
			"book_id":     res.BookID(),
			"reserved_at": res.ReservedAt(),
			"expires_at":  res.ExpiresAt(),
			"is_active":   res.IsActive(),
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build insert reservation query", err)
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create reservation", err)
	}
	return id, nil
}

func (r *ReservationRepository) Deactivate(ctx context.Context, tx db.DBTX, id uuid.UUID) error {
	sql, args, err := dialect.Update("reservations").
		Set(goqu.Record{
			"is_active": false,
		}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build deactivate query", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return infra.WrapRepoErr("failed to deactivate reservation", err)
	}
	return nil
}

func (r *ReservationRepository) DeactivateForUserAndBook(ctx context.Context, tx db.DBTX, userID, bookID uuid.UUID) error {
	sql, args, err := dialect.Update("reservations").
		Set(goqu.Record{
			"is_active": false,
		}).
		Where(
			goqu.C("user_id").Eq(userID),
			goqu.C("book_id").Eq(bookID),
			goqu.C("is_active").IsTrue(),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build consume reservation query", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return infra.WrapRepoErr("failed to consume reservation", err)
	}
	return nil
}

func (r *ReservationRepository) DeactivateExpired(ctx context.Context, tx db.DBTX, now time.Time) (int64, error) {
	sql, args, err := dialect.Update("reservations").
		Set(goqu.Record{
			"is_active": false,
		}).
		Where(
			goqu.C("is_active").IsTrue(),
			goqu.C("expires_at").Lt(now),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build expiry sweep query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sweep expired reservations", err)
	}
	return tag.RowsAffected(), nil
}
