package readstore

import (
	"context"
	"time"

	"library-api/internal/domain/borrow"
	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/clock"
	"library-api/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
)

const topBorrowedLimit = 5

type AnalyticsReadStore struct {
	db    db.DBTX
	clock clock.Clock
}

func NewAnalyticsReadStore(dbtx db.DBTX, clk clock.Clock) *AnalyticsReadStore {
	return &AnalyticsReadStore{db: dbtx, clock: clk}
}

// CollectDashboard aggregates over live tables; the outstanding fine total
// is projected from due dates, never read from a stored column.
func (r *AnalyticsReadStore) CollectDashboard(ctx context.Context) (*queries.DashboardView, error) {
	now := r.clock.Now()
	view := &queries.DashboardView{}

	bookSQL, bookArgs, err := dialect.From("books").
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.COALESCE(goqu.SUM(goqu.C("total_copies")), 0),
			goqu.COALESCE(goqu.SUM(goqu.C("available_copies")), 0),
		).
		Where(goqu.C("status").Eq("active")).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build book totals query", err)
	}
	if err := r.db.QueryRow(ctx, bookSQL, bookArgs...).Scan(&view.TotalBooks, &view.TotalCopies, &view.AvailableCopies); err != nil {
		return nil, infra.WrapRepoErr("failed to collect book totals", err)
	}

	dueSQL, dueArgs, err := dialect.From("borrows").
		Select("due_at").
		Where(goqu.C("status").Eq("active")).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build active borrows query", err)
	}
	rows, err := r.db.Query(ctx, dueSQL, dueArgs...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to collect active borrows", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dueAt time.Time
		if err := rows.Scan(&dueAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan active borrow row", err)
		}
		view.ActiveBorrows++
		if dueAt.Before(now) {
			view.OverdueBorrows++
			view.OutstandingFineCents += borrow.FineFor(dueAt, now)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate active borrow rows", err)
	}

	fineSQL, fineArgs, err := dialect.From("borrows").
		Select(goqu.COALESCE(goqu.SUM(goqu.C("fine_cents")), 0)).
		Where(goqu.C("status").Eq("returned")).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build collected fines query", err)
	}
	if err := r.db.QueryRow(ctx, fineSQL, fineArgs...).Scan(&view.CollectedFineCents); err != nil {
		return nil, infra.WrapRepoErr("failed to collect fine totals", err)
	}

	resSQL, resArgs, err := dialect.From("reservations").
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("is_active").IsTrue(), goqu.C("expires_at").Gt(now)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build active reservations query", err)
	}
	if err := r.db.QueryRow(ctx, resSQL, resArgs...).Scan(&view.ActiveReservations); err != nil {
		return nil, infra.WrapRepoErr("failed to count active reservations", err)
	}

	top, err := r.topBorrowed(ctx)
	if err != nil {
		return nil, err
	}
	view.TopBorrowedBooks = top

	return view, nil
}

func (r *AnalyticsReadStore) topBorrowed(ctx context.Context) ([]queries.TopBorrowedRow, error) {
	sql, args, err := dialect.From(goqu.T("borrows").As("b")).
		Join(goqu.T("books").As("bk"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("bk.id")))).
		Select(goqu.I("b.book_id"), goqu.I("bk.title"), goqu.COUNT(goqu.Star()).As("borrow_count")).
		GroupBy(goqu.I("b.book_id"), goqu.I("bk.title")).
		Order(goqu.I("borrow_count").Desc(), goqu.I("bk.title").Asc()).
		Limit(topBorrowedLimit).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build top borrowed query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to collect top borrowed books", err)
	}
	defer rows.Close()

	result := make([]queries.TopBorrowedRow, 0, topBorrowedLimit)
	for rows.Next() {
		var row queries.TopBorrowedRow
		if err := rows.Scan(&row.BookID, &row.Title, &row.BorrowCount); err != nil {
			return nil, infra.WrapRepoErr("failed to scan top borrowed row", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate top borrowed rows", err)
	}
	return result, nil
}

func (r *AnalyticsReadStore) RecentEvents(ctx context.Context, limit int32) ([]*queries.LendingEventView, error) {
	sql, args, err := dialect.From("lending_events").
		Select("id", "kind", "actor_id", "book_id", "payload", "occurred_at").
		Order(goqu.I("occurred_at").Desc(), goqu.I("id").Asc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build recent events query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list recent events", err)
	}
	defer rows.Close()

	result := make([]*queries.LendingEventView, 0, limit)
	for rows.Next() {
		var view queries.LendingEventView
		if err := rows.Scan(&view.ID, &view.Kind, &view.ActorID, &view.BookID, &view.Payload, &view.OccurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan event row", err)
		}
		result = append(result, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate event rows", err)
	}
	return result, nil
}
