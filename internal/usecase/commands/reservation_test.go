//go:build unit

package commands_test

import (
	"context"
	"testing"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/reservation"
	"library-api/internal/domain/user"
	"library-api/internal/pkg/clock"
	"library-api/internal/usecase/commands"
	"library-api/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationCommands(uow *fakeUoW) commands.ReservationCommands {
	clk := clock.NewMockClock(testTime)
	return commands.NewReservationCommands(uow, &fakeReservationReadStore{view: builder.NewReservationBuilder().BuildReadModel()}, clk)
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	unavailableBook := func(uow *fakeUoW) uuid.UUID {
		snap := builder.NewBookBuilder().With(func(b *builder.BookBuilder) {
			b.AvailableCopies = 0
		}).BuildSnapshot()
		uow.tx.reads.books[snap.ID] = snap
		return snap.ID
	}

	t.Run("success queues a hold with the full hold period", func(t *testing.T) {
		uow := newFakeUoW()
		bookID := unavailableBook(uow)

		svc := newReservationCommands(uow)
		view, err := svc.Reserve(ctx, userID, bookID)
		require.NoError(t, err)
		require.NotNil(t, view)

		require.Len(t, uow.tx.reservations.created, 1)
		created := uow.tx.reservations.created[0]
		assert.Equal(t, userID, created.UserID())
		assert.Equal(t, testTime.Add(reservation.HoldPeriod), created.ExpiresAt())

		require.Len(t, uow.tx.events.events, 1)
		assert.Equal(t, "reservation", uow.tx.events.events[0].Kind)
	})

	t.Run("book with copies on the shelf cannot be reserved", func(t *testing.T) {
		uow := newFakeUoW()
		snap := builder.NewBookBuilder().BuildSnapshot()
		uow.tx.reads.books[snap.ID] = snap

		svc := newReservationCommands(uow)
		_, err := svc.Reserve(ctx, userID, snap.ID)
		require.ErrorIs(t, err, commands.ErrBookStillAvailable)
	})

	t.Run("unknown book", func(t *testing.T) {
		uow := newFakeUoW()
		svc := newReservationCommands(uow)
		_, err := svc.Reserve(ctx, userID, uuid.New())
		require.ErrorIs(t, err, commands.ErrBookNotFound)
	})

	t.Run("archived book", func(t *testing.T) {
		uow := newFakeUoW()
		snap := builder.NewBookBuilder().With(func(b *builder.BookBuilder) {
			b.Status = "archived"
			b.AvailableCopies = 0
		}).BuildSnapshot()
		uow.tx.reads.books[snap.ID] = snap

		svc := newReservationCommands(uow)
		_, err := svc.Reserve(ctx, userID, snap.ID)
		require.ErrorIs(t, err, commands.ErrBookArchived)
	})

	t.Run("holder of an active borrow cannot also reserve", func(t *testing.T) {
		uow := newFakeUoW()
		bookID := unavailableBook(uow)
		uow.tx.reads.activeBorrow = builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.UserID = userID
			b.BookID = bookID
		}).BuildSnapshot()

		svc := newReservationCommands(uow)
		_, err := svc.Reserve(ctx, userID, bookID)
		require.ErrorIs(t, err, commands.ErrDuplicateBorrow)
	})

	t.Run("one active reservation per user and book", func(t *testing.T) {
		uow := newFakeUoW()
		bookID := unavailableBook(uow)
		uow.tx.reads.activeRes = builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.UserID = userID
			b.BookID = bookID
		}).BuildSnapshot()

		svc := newReservationCommands(uow)
		_, err := svc.Reserve(ctx, userID, bookID)
		require.ErrorIs(t, err, commands.ErrDuplicateReservation)
	})

	t.Run("unique index violation maps to duplicate reservation", func(t *testing.T) {
		uow := newFakeUoW()
		bookID := unavailableBook(uow)
		uow.tx.reservations.createErr = duplicateKey()

		svc := newReservationCommands(uow)
		_, err := svc.Reserve(ctx, userID, bookID)
		require.ErrorIs(t, err, commands.ErrDuplicateReservation)
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	owner := authz.Principal{ID: ownerID, Role: user.RoleStudent}
	staff := authz.Principal{ID: uuid.New(), Role: user.RoleStaff}

	seed := func(uow *fakeUoW, active bool) uuid.UUID {
		snap := builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.UserID = ownerID
			b.IsActive = active
		}).BuildSnapshot()
		uow.tx.reads.reservations[snap.ID] = snap
		return snap.ID
	}

	t.Run("owner cancels", func(t *testing.T) {
		uow := newFakeUoW()
		id := seed(uow, true)

		svc := newReservationCommands(uow)
		require.NoError(t, svc.Cancel(ctx, owner, id))

		require.Len(t, uow.tx.reservations.deactivated, 1)
		assert.Equal(t, id, uow.tx.reservations.deactivated[0])
		require.Len(t, uow.tx.events.events, 1)
		assert.Equal(t, "reservation_cancel", uow.tx.events.events[0].Kind)
	})

	t.Run("cancel of an inactive reservation is a no-op", func(t *testing.T) {
		uow := newFakeUoW()
		id := seed(uow, false)

		svc := newReservationCommands(uow)
		require.NoError(t, svc.Cancel(ctx, owner, id))
		assert.Empty(t, uow.tx.reservations.deactivated)
		assert.Empty(t, uow.tx.events.events)
	})

	t.Run("staff cancels another user's reservation", func(t *testing.T) {
		uow := newFakeUoW()
		id := seed(uow, true)

		svc := newReservationCommands(uow)
		require.NoError(t, svc.Cancel(ctx, staff, id))
	})

	t.Run("student cannot cancel someone else's reservation", func(t *testing.T) {
		uow := newFakeUoW()
		id := seed(uow, true)

		stranger := authz.Principal{ID: uuid.New(), Role: user.RoleStudent}
		svc := newReservationCommands(uow)
		require.ErrorIs(t, svc.Cancel(ctx, stranger, id), commands.ErrReservationAccessDenied)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		uow := newFakeUoW()
		svc := newReservationCommands(uow)
		require.ErrorIs(t, svc.Cancel(ctx, owner, uuid.New()), commands.ErrReservationNotFound)
	})
}

func TestExpireSweep(t *testing.T) {
	ctx := context.Background()
	staff := authz.Principal{ID: uuid.New(), Role: user.RoleStaff}
	student := authz.Principal{ID: uuid.New(), Role: user.RoleStudent}

	t.Run("sweeps expired holds and reports the count", func(t *testing.T) {
		uow := newFakeUoW()
		uow.tx.reservations.sweepCount = 3

		svc := newReservationCommands(uow)
		swept, err := svc.ExpireSweep(ctx, staff)
		require.NoError(t, err)
		assert.Equal(t, int64(3), swept)
		assert.Equal(t, testTime, uow.tx.reservations.sweepTimestamp)
	})

	t.Run("students cannot sweep", func(t *testing.T) {
		uow := newFakeUoW()
		svc := newReservationCommands(uow)
		_, err := svc.ExpireSweep(ctx, student)
		require.ErrorIs(t, err, commands.ErrReservationAccessDenied)
	})

	t.Run("nothing to sweep", func(t *testing.T) {
		uow := newFakeUoW()
		svc := newReservationCommands(uow)
		swept, err := svc.ExpireSweep(ctx, staff)
		require.NoError(t, err)
		assert.Equal(t, int64(0), swept)
	})
}
