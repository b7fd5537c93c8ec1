package queries

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrBookNotFound = errs.New("book not found")

type BookQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookView, error)
	List(ctx context.Context, search string, page, limit int) (*Page[*BookView], error)
}

type BookReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookView, error)
	Search(ctx context.Context, search string, limit, offset int32) ([]*BookView, int64, error)
}

type bookQueriesImpl struct {
	readStore BookReadStore
}

func NewBookQueries(readStore BookReadStore) BookQueries {
	return &bookQueriesImpl{readStore: readStore}
}

func (q *bookQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookView, error) {
	view, err := q.readStore.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *bookQueriesImpl) List(ctx context.Context, search string, page, limit int) (*Page[*BookView], error) {
	page, limit = NormalizePaging(page, limit)
	offset := (page - 1) * limit

	items, total, err := q.readStore.Search(ctx, search, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	return NewPage(items, page, limit, total), nil
}
