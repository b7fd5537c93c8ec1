package commands

import (
	"context"
	"time"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/reservation"
	"library-api/internal/infra"
	"library-api/internal/pkg/clock"
	"library-api/internal/pkg/errs"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrBookStillAvailable      = errs.New("book has available copies, borrow directly")
	ErrDuplicateReservation    = errs.New("active reservation already exists")
	ErrReservationNotFound     = errs.New("reservation not found")
	ErrReservationAccessDenied = errs.New("reservation access denied")
)

type ReservationCommands interface {
	Reserve(ctx context.Context, userID, bookID uuid.UUID) (*queries.ReservationView, error)
	Cancel(ctx context.Context, actor authz.Principal, reservationID uuid.UUID) error
	ExpireSweep(ctx context.Context, actor authz.Principal) (int64, error)
}

type reservationCommandsImpl struct {
	uow       shared.UnitOfWork
	readStore queries.ReservationReadStore
	clock     clock.Clock
}

func NewReservationCommands(uow shared.UnitOfWork, readStore queries.ReservationReadStore, clock clock.Clock) ReservationCommands {
	return &reservationCommandsImpl{
		uow:       uow,
		readStore: readStore,
		clock:     clock,
	}
}

// Reserve queues a claim on a fully borrowed book. A book with copies on
// the shelf cannot be reserved; the caller should just check it out.
func (c *reservationCommandsImpl) Reserve(ctx context.Context, userID, bookID uuid.UUID) (*queries.ReservationView, error) {
	var reservationID uuid.UUID

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		book, err := tx.Reads().BookByID(ctx, bookID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if book.Status == "archived" {
			return ErrBookArchived
		}
		if book.AvailableCopies > 0 {
			return ErrBookStillAvailable
		}

		if _, err := tx.Reads().ActiveBorrow(ctx, userID, bookID); err == nil {
			return ErrDuplicateBorrow
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return err
		}

		if _, err := tx.Reads().ActiveReservation(ctx, userID, bookID); err == nil {
			return ErrDuplicateReservation
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return err
		}

		now := c.clock.Now()
		res := reservation.NewReservation(userID, bookID, now)
		if _, err := tx.Reservations().Create(ctx, tx.DB(), res); err != nil {
			// The partial unique index backs the precondition under races.
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDuplicateReservation
			}
			return err
		}
		reservationID = res.ID()

		return appendEvent(ctx, tx, EventReservation, userID, bookID, reservationPayload{
			ReservationID: res.ID(),
			ExpiresAt:     res.ExpiresAt(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, reservationID)
}

// Cancel is idempotent: cancelling an inactive reservation succeeds
// without touching anything.
func (c *reservationCommandsImpl) Cancel(ctx context.Context, actor authz.Principal, reservationID uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().ReservationByID(ctx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if !authz.Can(actor, authz.ActionReservationCancel, authz.Resource{OwnedBy: snap.UserID}) {
			return ErrReservationAccessDenied
		}

		if !snap.IsActive {
			return nil
		}

		if err := tx.Reservations().Deactivate(ctx, tx.DB(), reservationID); err != nil {
			return err
		}

		return appendEvent(ctx, tx, EventReservationCancel, actor.ID, snap.BookID, reservationCancelPayload{
			ReservationID: reservationID,
		}, c.clock.Now())
	})
}

// ExpireSweep deactivates every reservation past its expiry in one
// statement and reports how many were swept. Copy counts are untouched.
func (c *reservationCommandsImpl) ExpireSweep(ctx context.Context, actor authz.Principal) (int64, error) {
	if !authz.Can(actor, authz.ActionReservationSweep, authz.Resource{}) {
		return 0, ErrReservationAccessDenied
	}

	var swept int64
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		swept, err = tx.Reservations().DeactivateExpired(ctx, tx.DB(), c.clock.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

type reservationPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type reservationCancelPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
}
