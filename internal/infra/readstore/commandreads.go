package readstore

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/pgconv"
	"library-api/internal/usecase/shared"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CommandReads serves the write side's lookups. It deliberately returns
// plain snapshots rather than the read-model views.
type CommandReads struct {
	db db.DBTX
}

func NewCommandReads(dbtx db.DBTX) *CommandReads {
	return &CommandReads{db: dbtx}
}

func (r *CommandReads) BookByID(ctx context.Context, id uuid.UUID) (*shared.BookSnapshot, error) {
	sql, args, err := dialect.From("books").
		Select("id", "isbn", "title", "author", "total_copies", "available_copies", "status").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build book snapshot query", err)
	}

	var snap shared.BookSnapshot
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&snap.ID, &snap.ISBN, &snap.Title, &snap.Author,
		&snap.TotalCopies, &snap.AvailableCopies, &snap.Status,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("book not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read book snapshot", err)
	}
	return &snap, nil
}

func (r *CommandReads) BorrowByID(ctx context.Context, id uuid.UUID) (*shared.BorrowSnapshot, error) {
	return r.borrowSnapshot(ctx, goqu.Ex{"id": id})
}

func (r *CommandReads) ActiveBorrow(ctx context.Context, userID, bookID uuid.UUID) (*shared.BorrowSnapshot, error) {
	return r.borrowSnapshot(ctx, goqu.Ex{"user_id": userID, "book_id": bookID, "status": "active"})
}

func (r *CommandReads) borrowSnapshot(ctx context.Context, where goqu.Ex) (*shared.BorrowSnapshot, error) {
	sql, args, err := dialect.From("borrows").
		Select("id", "user_id", "book_id", "borrowed_at", "due_at", "returned_at", "status", "renewal_count", "fine_cents").
		Where(where).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build borrow snapshot query", err)
	}

	var (
		snap       shared.BorrowSnapshot
		returnedAt pgtype.Timestamptz
		fineCents  pgtype.Int8
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&snap.ID, &snap.UserID, &snap.BookID,
		&snap.BorrowedAt, &snap.DueAt, &returnedAt,
		&snap.Status, &snap.RenewalCount, &fineCents,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("borrow not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read borrow snapshot", err)
	}
	snap.ReturnedAt = pgconv.TimePtrFromPgtype(returnedAt)
	snap.FineCents = pgconv.Int64PtrFromPgtype(fineCents)
	return &snap, nil
}

func (r *CommandReads) ReservationByID(ctx context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	return r.reservationSnapshot(ctx, goqu.Ex{"id": id})
}

func (r *CommandReads) ActiveReservation(ctx context.Context, userID, bookID uuid.UUID) (*shared.ReservationSnapshot, error) {
	return r.reservationSnapshot(ctx, goqu.Ex{"user_id": userID, "book_id": bookID, "is_active": true})
}

// ActiveReservationHeldByOther reports whether someone else holds the book;
// renewal uses it to refuse extending a loan another reader is waiting on.
func (r *CommandReads) ActiveReservationHeldByOther(ctx context.Context, bookID, excludeUserID uuid.UUID) (*shared.ReservationSnapshot, error) {
	sql, args, err := dialect.From("reservations").
		Select("id", "user_id", "book_id", "reserved_at", "expires_at", "is_active").
		Where(
			goqu.C("book_id").Eq(bookID),
			goqu.C("user_id").Neq(excludeUserID),
			goqu.C("is_active").IsTrue(),
		).
		Order(goqu.I("reserved_at").Asc()).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build held reservation query", err)
	}
	return r.scanReservationSnapshot(ctx, sql, args)
}

func (r *CommandReads) reservationSnapshot(ctx context.Context, where goqu.Ex) (*shared.ReservationSnapshot, error) {
	sql, args, err := dialect.From("reservations").
		Select("id", "user_id", "book_id", "reserved_at", "expires_at", "is_active").
		Where(where).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build reservation snapshot query", err)
	}
	return r.scanReservationSnapshot(ctx, sql, args)
}

func (r *CommandReads) scanReservationSnapshot(ctx context.Context, sql string, args []any) (*shared.ReservationSnapshot, error) {
	var snap shared.ReservationSnapshot
	err := r.db.QueryRow(ctx, sql, args...).Scan(
		&snap.ID, &snap.UserID, &snap.BookID,
		&snap.ReservedAt, &snap.ExpiresAt, &snap.IsActive,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read reservation snapshot", err)
	}
	return &snap, nil
}
