package queries

import (
	"context"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/borrow"
	"library-api/internal/infra"
	"library-api/internal/pkg/clock"
	"library-api/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBorrowNotFound = errs.New("borrow not found")
	ErrBorrowAccess   = errs.New("borrow access denied")
)

// BorrowListFilter narrows the staff-wide listing; zero values mean "all".
type BorrowListFilter struct {
	UserID uuid.UUID
	BookID uuid.UUID
	Status string
}

type BorrowQueries interface {
	GetByID(ctx context.Context, actor authz.Principal, id uuid.UUID) (*BorrowView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*Page[*BorrowView], error)
	ListAll(ctx context.Context, filter BorrowListFilter, page, limit int) (*Page[*BorrowView], error)
	ListOverdue(ctx context.Context, page, limit int) (*Page[*OverdueBorrowView], error)
}

type BorrowReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BorrowView, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*BorrowView, int64, error)
	FindAll(ctx context.Context, filter BorrowListFilter, limit, offset int32) ([]*BorrowView, int64, error)
	FindOverdue(ctx context.Context, limit, offset int32) ([]*BorrowView, int64, error)
}

type borrowQueriesImpl struct {
	readStore BorrowReadStore
	clock     clock.Clock
}

func NewBorrowQueries(readStore BorrowReadStore, clock clock.Clock) BorrowQueries {
	return &borrowQueriesImpl{
		readStore: readStore,
		clock:     clock,
	}
}

func (q *borrowQueriesImpl) GetByID(ctx context.Context, actor authz.Principal, id uuid.UUID) (*BorrowView, error) {
	view, err := q.readStore.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}

	if !authz.Can(actor, authz.ActionBorrowView, authz.Resource{OwnedBy: view.UserID}) {
		return nil, ErrBorrowAccess
	}
	return view, nil
}

func (q *borrowQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*Page[*BorrowView], error) {
	page, limit = NormalizePaging(page, limit)
	offset := (page - 1) * limit

	items, total, err := q.readStore.FindByUser(ctx, userID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	return NewPage(items, page, limit, total), nil
}

func (q *borrowQueriesImpl) ListAll(ctx context.Context, filter BorrowListFilter, page, limit int) (*Page[*BorrowView], error) {
	page, limit = NormalizePaging(page, limit)
	offset := (page - 1) * limit

	items, total, err := q.readStore.FindAll(ctx, filter, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	return NewPage(items, page, limit, total), nil
}

// ListOverdue annotates each row at call time; the projected fine uses
// the same formula that return applies, without persisting anything.
func (q *borrowQueriesImpl) ListOverdue(ctx context.Context, page, limit int) (*Page[*OverdueBorrowView], error) {
	page, limit = NormalizePaging(page, limit)
	offset := (page - 1) * limit

	rows, total, err := q.readStore.FindOverdue(ctx, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}

	now := q.clock.Now()
	items := make([]*OverdueBorrowView, len(rows))
	for i, row := range rows {
		b := borrow.ReconstructBorrow(
			row.ID, row.UserID, row.BookID,
			row.BorrowedAt, row.DueAt, row.ReturnedAt,
			borrow.Status(row.Status), row.RenewalCount, row.FineCents,
		)
		items[i] = &OverdueBorrowView{
			BorrowView:         *row,
			DaysOverdue:        b.DaysOverdue(now),
			ProjectedFineCents: b.ProjectedFineCents(now),
		}
	}
	return NewPage(items, page, limit, total), nil
}
