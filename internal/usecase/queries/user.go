package queries

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errs.New("user not found")
	ErrUserInactive = errs.New("user inactive")
)

type UserQueries interface {
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error)
	List(ctx context.Context, page, limit int) (*Page[*AuthorizedUserView], error)
}

type UserReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AuthorizedUserView, error)
	FindByEmail(ctx context.Context, email string) (*AuthorizedUserView, string, error)
	FindAll(ctx context.Context, limit, offset int32) ([]*AuthorizedUserView, int64, error)
}

type userQueriesImpl struct {
	readStore UserReadStore
}

func NewUserQueries(readStore UserReadStore) UserQueries {
	return &userQueriesImpl{
		readStore: readStore,
	}
}

func (q *userQueriesImpl) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error) {
	user, err := q.readStore.FindByID(ctx, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

func (q *userQueriesImpl) List(ctx context.Context, page, limit int) (*Page[*AuthorizedUserView], error) {
	page, limit = NormalizePaging(page, limit)
	offset := (page - 1) * limit

	items, total, err := q.readStore.FindAll(ctx, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	return NewPage(items, page, limit, total), nil
}
