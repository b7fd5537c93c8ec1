package readstore

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/clock"
	"library-api/internal/pkg/pgconv"
	"library-api/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var borrowColumns = []any{
	goqu.I("b.id"),
	goqu.I("b.user_id"),
	goqu.I("u.email").As("user_email"),
	goqu.I("b.book_id"),
	goqu.I("bk.title").As("book_title"),
	goqu.I("b.borrowed_at"),
	goqu.I("b.due_at"),
	goqu.I("b.returned_at"),
	goqu.I("b.status"),
	goqu.I("b.renewal_count"),
	goqu.I("b.fine_cents"),
}

type BorrowReadStore struct {
	db    db.DBTX
	clock clock.Clock
}

func NewBorrowReadStore(dbtx db.DBTX, clk clock.Clock) *BorrowReadStore {
	return &BorrowReadStore{db: dbtx, clock: clk}
}

func borrowBase() *goqu.SelectDataset {
	return dialect.From(goqu.T("borrows").As("b")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("b.user_id").Eq(goqu.I("u.id")))).
		Join(goqu.T("books").As("bk"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("bk.id"))))
}

func (r *BorrowReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BorrowView, error) {
	sql, args, err := borrowBase().
		Select(borrowColumns...).
		Where(goqu.I("b.id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find borrow query", err)
	}

	view, err := scanBorrowView(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("borrow not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find borrow by ID", err)
	}
	return view, nil
}

func (r *BorrowReadStore) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*queries.BorrowView, int64, error) {
	return r.findPage(ctx, []goqu.Expression{goqu.I("b.user_id").Eq(userID)}, limit, offset)
}

func (r *BorrowReadStore) FindAll(ctx context.Context, filter queries.BorrowListFilter, limit, offset int32) ([]*queries.BorrowView, int64, error) {
	conditions := make([]goqu.Expression, 0, 3)
	if filter.UserID != uuid.Nil {
		conditions = append(conditions, goqu.I("b.user_id").Eq(filter.UserID))
	}
	if filter.BookID != uuid.Nil {
		conditions = append(conditions, goqu.I("b.book_id").Eq(filter.BookID))
	}
	if filter.Status != "" {
		conditions = append(conditions, goqu.I("b.status").Eq(filter.Status))
	}
	return r.findPage(ctx, conditions, limit, offset)
}

func (r *BorrowReadStore) FindOverdue(ctx context.Context, limit, offset int32) ([]*queries.BorrowView, int64, error) {
	conditions := []goqu.Expression{
		goqu.I("b.status").Eq("active"),
		goqu.I("b.due_at").Lt(r.clock.Now()),
	}
	return r.findPage(ctx, conditions, limit, offset)
}

func (r *BorrowReadStore) findPage(ctx context.Context, conditions []goqu.Expression, limit, offset int32) ([]*queries.BorrowView, int64, error) {
	countSQL, countArgs, err := borrowBase().
		Select(goqu.COUNT(goqu.Star())).
		Where(conditions...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build count borrows query", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to count borrows", err)
	}

	sql, args, err := borrowBase().
		Select(borrowColumns...).
		Where(conditions...).
		Order(goqu.I("b.borrowed_at").Desc(), goqu.I("b.id").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build list borrows query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to list borrows", err)
	}
	defer rows.Close()

	result := make([]*queries.BorrowView, 0, limit)
	for rows.Next() {
		view, scanErr := scanBorrowView(rows)
		if scanErr != nil {
			return nil, 0, infra.WrapRepoErr("failed to scan borrow row", scanErr)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to iterate borrow rows", err)
	}

	return result, total, nil
}

func scanBorrowView(row rowScanner) (*queries.BorrowView, error) {
	var (
		view       queries.BorrowView
		returnedAt pgtype.Timestamptz
		fineCents  pgtype.Int8
	)
	err := row.Scan(
		&view.ID,
		&view.UserID,
		&view.UserEmail,
		&view.BookID,
		&view.BookTitle,
		&view.BorrowedAt,
		&view.DueAt,
		&returnedAt,
		&view.Status,
		&view.RenewalCount,
		&fineCents,
	)
	if err != nil {
		return nil, err
	}
	view.ReturnedAt = pgconv.TimePtrFromPgtype(returnedAt)
	view.FineCents = pgconv.Int64PtrFromPgtype(fineCents)
	return &view, nil
}
