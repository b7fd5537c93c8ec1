package readstore

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/pgconv"
	"library-api/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

var reservationColumns = []any{
	goqu.I("r.id"),
	goqu.I("r.user_id"),
	goqu.I("r.book_id"),
	goqu.I("bk.title").As("book_title"),
	goqu.I("r.reserved_at"),
	goqu.I("r.expires_at"),
	goqu.I("r.is_active"),
}

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

func reservationBase() *goqu.SelectDataset {
	return dialect.From(goqu.T("reservations").As("r")).
		Join(goqu.T("books").As("bk"), goqu.On(goqu.I("r.book_id").Eq(goqu.I("bk.id"))))
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	sql, args, err := reservationBase().
		Select(reservationColumns...).
		Where(goqu.I("r.id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find reservation query", err)
	}

	view, err := scanReservationView(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return view, nil
}

func (r *ReservationReadStore) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*queries.ReservationView, int64, error) {
	condition := goqu.I("r.user_id").Eq(userID)

	countSQL, countArgs, err := reservationBase().
		Select(goqu.COUNT(goqu.Star())).
		Where(condition).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build count reservations query", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to count reservations", err)
	}

	sql, args, err := reservationBase().
		Select(reservationColumns...).
		Where(condition).
		Order(goqu.I("r.reserved_at").Desc(), goqu.I("r.id").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build list reservations query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	result := make([]*queries.ReservationView, 0, limit)
	for rows.Next() {
		view, scanErr := scanReservationView(rows)
		if scanErr != nil {
			return nil, 0, infra.WrapRepoErr("failed to scan reservation row", scanErr)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to iterate reservation rows", err)
	}

	return result, total, nil
}

func scanReservationView(row rowScanner) (*queries.ReservationView, error) {
	var view queries.ReservationView
	err := row.Scan(
		&view.ID,
		&view.UserID,
		&view.BookID,
		&view.BookTitle,
		&view.ReservedAt,
		&view.ExpiresAt,
		&view.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
