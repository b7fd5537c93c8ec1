package commands

import (
	"context"
	"log/slog"
	"time"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/borrow"
	"library-api/internal/infra"
	"library-api/internal/pkg/clock"
	"library-api/internal/pkg/errs"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrBookNotFound       = errs.New("book not found")
	ErrBookArchived       = errs.New("book is archived")
	ErrBookNotAvailable   = errs.New("no copies available")
	ErrDuplicateBorrow    = errs.New("user already borrows this book")
	ErrBorrowNotFound     = errs.New("borrow not found")
	ErrBorrowAccessDenied = errs.New("borrow access denied")
	ErrBorrowNotActive    = errs.New("borrow is not active")
	ErrRenewalLimit       = errs.New("renewal limit reached")
	ErrReservedByOther    = errs.New("book is reserved by another user")
)

type ReturnResult struct {
	Borrow    *queries.BorrowView
	FineCents int64
}

type BorrowCommands interface {
	Checkout(ctx context.Context, userID, bookID uuid.UUID) (*queries.BorrowView, error)
	Renew(ctx context.Context, actor authz.Principal, borrowID uuid.UUID) (*queries.BorrowView, error)
	Return(ctx context.Context, actor authz.Principal, borrowID uuid.UUID) (*ReturnResult, error)
}

type borrowCommandsImpl struct {
	uow       shared.UnitOfWork
	readStore queries.BorrowReadStore
	clock     clock.Clock
}

func NewBorrowCommands(uow shared.UnitOfWork, readStore queries.BorrowReadStore, clock clock.Clock) BorrowCommands {
	return &borrowCommandsImpl{
		uow:       uow,
		readStore: readStore,
		clock:     clock,
	}
}

// Checkout claims a copy for the caller. The decrement is a conditional
// UPDATE, so two concurrent checkouts of the last copy cannot both win:
// the loser sees zero rows affected and the transaction rolls back.
func (c *borrowCommandsImpl) Checkout(ctx context.Context, userID, bookID uuid.UUID) (*queries.BorrowView, error) {
	var borrowID uuid.UUID

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

		if _, err := tx.Reads().ActiveBorrow(ctx, userID, bookID); err == nil {
			return ErrDuplicateBorrow
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return err
		}

		rows, err := tx.Books().DecrementAvailable(ctx, tx.DB(), bookID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrBookNotAvailable
		}

		now := c.clock.Now()
		b := borrow.NewBorrow(userID, bookID, now)
		if _, err := tx.Borrows().Create(ctx, tx.DB(), b); err != nil {
			// The partial unique index backs the precondition under races.
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDuplicateBorrow
			}
			return err
		}
		borrowID = b.ID()

		// The borrower's own hold, if any, is consumed by the checkout.
		if err := tx.Reservations().DeactivateForUserAndBook(ctx, tx.DB(), userID, bookID); err != nil {
			return err
		}

		return appendEvent(ctx, tx, EventCheckout, userID, bookID, checkoutPayload{
			BorrowID: b.ID(),
			DueAt:    b.DueAt(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, borrowID)
}

func (c *borrowCommandsImpl) Renew(ctx context.Context, actor authz.Principal, borrowID uuid.UUID) (*queries.BorrowView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().BorrowByID(ctx, borrowID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}

		if !authz.Can(actor, authz.ActionBorrowRenew, authz.Resource{OwnedBy: snap.UserID}) {
			return ErrBorrowAccessDenied
		}

		now := c.clock.Now()

		held, err := tx.Reads().ActiveReservationHeldByOther(ctx, snap.BookID, snap.UserID)
		if err != nil && !infra.IsKind(err, infra.KindNotFound) {
			return err
		}
		if held != nil && held.ExpiresAt.After(now) {
			return ErrReservedByOther
		}

		b := reconstructBorrow(snap)
		if err := b.Renew(); err != nil {
			switch err {
			case borrow.ErrNotActive:
				return ErrBorrowNotActive
			case borrow.ErrRenewalLimitReached:
				return ErrRenewalLimit
			default:
				return err
			}
		}

		if err := tx.Borrows().SaveRenewal(ctx, tx.DB(), borrowID, b.DueAt(), b.RenewalCount()); err != nil {
			return err
		}

		return appendEvent(ctx, tx, EventRenewal, actor.ID, snap.BookID, renewalPayload{
			BorrowID:     borrowID,
			DueAt:        b.DueAt(),
			RenewalCount: b.RenewalCount(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, borrowID)
}

// Return closes the borrow and releases the copy. The fine is fixed here
// from due_at against the clock; nothing about overdueness was stored.
func (c *borrowCommandsImpl) Return(ctx context.Context, actor authz.Principal, borrowID uuid.UUID) (*ReturnResult, error) {
	var fine int64

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		snap, err := tx.Reads().BorrowByID(ctx, borrowID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}

		if !authz.Can(actor, authz.ActionBorrowReturn, authz.Resource{OwnedBy: snap.UserID}) {
			return ErrBorrowAccessDenied
		}

		now := c.clock.Now()
		b := reconstructBorrow(snap)
		fine, err = b.Return(now)
		if err != nil {
			return ErrBorrowNotActive
		}

		if err := tx.Borrows().SaveReturn(ctx, tx.DB(), borrowID, now, b.FineCents()); err != nil {
			return err
		}

		rows, err := tx.Books().IncrementAvailable(ctx, tx.DB(), snap.BookID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// available == total would mean the counters drifted; keep the
			// return but make the drift visible.
			slog.Warn("available copies already at total on return",
				"book_id", snap.BookID, "borrow_id", borrowID)
		}

		return appendEvent(ctx, tx, EventReturn, actor.ID, snap.BookID, returnPayload{
			BorrowID:  borrowID,
			FineCents: fine,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	view, err := c.readStore.FindByID(ctx, borrowID)
	if err != nil {
		return nil, err
	}
	return &ReturnResult{Borrow: view, FineCents: fine}, nil
}

func reconstructBorrow(snap *shared.BorrowSnapshot) *borrow.Borrow {
	return borrow.ReconstructBorrow(
		snap.ID, snap.UserID, snap.BookID,
		snap.BorrowedAt, snap.DueAt, snap.ReturnedAt,
		borrow.Status(snap.Status), snap.RenewalCount, snap.FineCents,
	)
}

type checkoutPayload struct {
	BorrowID uuid.UUID `json:"borrow_id"`
	DueAt    time.Time `json:"due_at"`
}

type renewalPayload struct {
	BorrowID     uuid.UUID `json:"borrow_id"`
	DueAt        time.Time `json:"due_at"`
	RenewalCount int32     `json:"renewal_count"`
}

type returnPayload struct {
	BorrowID  uuid.UUID `json:"borrow_id"`
	FineCents int64     `json:"fine_cents"`
}

// appendEvent serializes the payload and writes one audit row. Audit
// failures abort the transaction; the stream must not have holes.
func appendEvent(ctx context.Context, tx shared.Tx, kind string, actorID, bookID uuid.UUID, payload any, occurredAt time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to serialize event payload")
	}
	return tx.Events().Append(ctx, tx.DB(), kind, actorID, bookID, body, occurredAt)
}
