package queries

import (
	"context"

	"library-api/internal/domain/authz"
	"library-api/internal/infra"
	"library-api/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrReservationAccess   = errs.New("reservation access denied")
)

type ReservationQueries interface {
	GetByID(ctx context.Context, actor authz.Principal, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*Page[*ReservationView], error)
}

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*ReservationView, int64, error)
}

type reservationQueriesImpl struct {
	readStore ReservationReadStore
}

func NewReservationQueries(readStore ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{readStore: readStore}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, actor authz.Principal, id uuid.UUID) (*ReservationView, error) {
	view, err := q.readStore.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	if !authz.Can(actor, authz.ActionReservationCancel, authz.Resource{OwnedBy: view.UserID}) {
		return nil, ErrReservationAccess
	}
	return view, nil
}

func (q *reservationQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*Page[*ReservationView], error) {
	page, limit = NormalizePaging(page, limit)
	offset := (page - 1) * limit

	items, total, err := q.readStore.FindByUser(ctx, userID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	return NewPage(items, page, limit, total), nil
}
