//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/borrow"
	"library-api/internal/domain/user"
	"library-api/internal/pkg/clock"
	"library-api/internal/usecase/commands"
	"library-api/internal/usecase/shared"
	"library-api/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newBorrowCommands(uow *fakeUoW) commands.BorrowCommands {
	clk := clock.NewMockClock(testTime)
	return commands.NewBorrowCommands(uow, &fakeBorrowReadStore{view: builder.NewBorrowBuilder().BuildReadModel()}, clk)
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success claims a copy and records the event", func(t *testing.T) {
		uow := newFakeUoW()
		bookSnap := builder.NewBookBuilder().BuildSnapshot()
		uow.tx.reads.books[bookSnap.ID] = bookSnap
		uow.tx.books.decrementRows = 1

		svc := newBorrowCommands(uow)
		view, err := svc.Checkout(ctx, userID, bookSnap.ID)
		require.NoError(t, err)
		require.NotNil(t, view)

		require.Len(t, uow.tx.books.decremented, 1)
		assert.Equal(t, bookSnap.ID, uow.tx.books.decremented[0])

		require.Len(t, uow.tx.borrows.created, 1)
		created := uow.tx.borrows.created[0]
		assert.Equal(t, userID, created.UserID())
		assert.Equal(t, testTime.Add(borrow.LoanPeriod), created.DueAt())

		// The borrower's own hold is consumed in the same transaction.
		expected := [][2]uuid.UUID{{userID, bookSnap.ID}}
		if diff := cmp.Diff(expected, uow.tx.reservations.consumed); diff != "" {
			t.Errorf("consumed reservations mismatch (-want +got):\n%s", diff)
		}

		require.Len(t, uow.tx.events.events, 1)
		assert.Equal(t, "checkout", uow.tx.events.events[0].Kind)
		assert.Equal(t, userID, uow.tx.events.events[0].ActorID)
	})

	t.Run("unknown book", func(t *testing.T) {
		uow := newFakeUoW()
		svc := newBorrowCommands(uow)

		_, err := svc.Checkout(ctx, userID, uuid.New())
		require.ErrorIs(t, err, commands.ErrBookNotFound)
	})

	t.Run("archived book", func(t *testing.T) {
		uow := newFakeUoW()
		bookSnap := builder.NewBookBuilder().With(func(b *builder.BookBuilder) {
			b.Status = "archived"
		}).BuildSnapshot()
		uow.tx.reads.books[bookSnap.ID] = bookSnap

		svc := newBorrowCommands(uow)
		_, err := svc.Checkout(ctx, userID, bookSnap.ID)
		require.ErrorIs(t, err, commands.ErrBookArchived)
		assert.Empty(t, uow.tx.books.decremented)
	})

	t.Run("existing active borrow of the same book", func(t *testing.T) {
		uow := newFakeUoW()
		bookSnap := builder.NewBookBuilder().BuildSnapshot()
		uow.tx.reads.books[bookSnap.ID] = bookSnap
		uow.tx.reads.activeBorrow = builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.UserID = userID
			b.BookID = bookSnap.ID
		}).BuildSnapshot()

		svc := newBorrowCommands(uow)
		_, err := svc.Checkout(ctx, userID, bookSnap.ID)
		require.ErrorIs(t, err, commands.ErrDuplicateBorrow)
	})

	t.Run("no copies available", func(t *testing.T) {
		uow := newFakeUoW()
		bookSnap := builder.NewBookBuilder().With(func(b *builder.BookBuilder) {
			b.AvailableCopies = 0
		}).BuildSnapshot()
		uow.tx.reads.books[bookSnap.ID] = bookSnap
		uow.tx.books.decrementRows = 0

		svc := newBorrowCommands(uow)
		_, err := svc.Checkout(ctx, userID, bookSnap.ID)
		require.ErrorIs(t, err, commands.ErrBookNotAvailable)
		assert.Empty(t, uow.tx.events.events)
	})

	t.Run("unique index violation maps to duplicate borrow", func(t *testing.T) {
		// Two concurrent checkouts can both pass the read; the partial
		// unique index catches the loser on insert.
		uow := newFakeUoW()
		bookSnap := builder.NewBookBuilder().BuildSnapshot()
		uow.tx.reads.books[bookSnap.ID] = bookSnap
		uow.tx.books.decrementRows = 1
		uow.tx.borrows.createErr = duplicateKey()

		svc := newBorrowCommands(uow)
		_, err := svc.Checkout(ctx, userID, bookSnap.ID)
		require.ErrorIs(t, err, commands.ErrDuplicateBorrow)
	})
}

func TestRenewCommand(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	owner := authz.Principal{ID: ownerID, Role: user.RoleStudent}
	staff := authz.Principal{ID: uuid.New(), Role: user.RoleStaff}

	seedBorrow := func(uow *fakeUoW, mutate func(*builder.BorrowBuilder)) *shared.BorrowSnapshot {
		bb := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.UserID = ownerID
		})
		if mutate != nil {
			bb.With(mutate)
		}
		snap := bb.BuildSnapshot()
		uow.tx.reads.borrows[snap.ID] = snap
		return snap
	}

	t.Run("owner renews, due date extends from the old due date", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, nil)

		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, owner, snap.ID)
		require.NoError(t, err)

		require.Len(t, uow.tx.borrows.renewals, 1)
		saved := uow.tx.borrows.renewals[0]
		assert.Equal(t, snap.DueAt.Add(borrow.LoanPeriod), saved.dueAt)
		assert.Equal(t, int32(1), saved.renewalCount)

		require.Len(t, uow.tx.events.events, 1)
		assert.Equal(t, "renewal", uow.tx.events.events[0].Kind)
	})

	t.Run("staff renews another user's borrow", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, nil)

		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, staff, snap.ID)
		require.NoError(t, err)
	})

	t.Run("student cannot renew someone else's borrow", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, nil)

		stranger := authz.Principal{ID: uuid.New(), Role: user.RoleStudent}
		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, stranger, snap.ID)
		require.ErrorIs(t, err, commands.ErrBorrowAccessDenied)
	})

	t.Run("renewal limit", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, func(b *builder.BorrowBuilder) {
			b.RenewalCount = borrow.MaxRenewals
		})

		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, owner, snap.ID)
		require.ErrorIs(t, err, commands.ErrRenewalLimit)
		assert.Empty(t, uow.tx.borrows.renewals)
	})

	t.Run("returned borrow", func(t *testing.T) {
		returnedAt := testTime
		uow := newFakeUoW()
		snap := seedBorrow(uow, func(b *builder.BorrowBuilder) {
			b.Status = "returned"
			b.ReturnedAt = &returnedAt
		})

		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, owner, snap.ID)
		require.ErrorIs(t, err, commands.ErrBorrowNotActive)
	})

	t.Run("blocked while another user holds an unexpired reservation", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, nil)
		uow.tx.reads.heldByOther = builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.BookID = snap.BookID
			b.ExpiresAt = testTime.Add(time.Hour)
		}).BuildSnapshot()

		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, owner, snap.ID)
		require.ErrorIs(t, err, commands.ErrReservedByOther)
	})

	t.Run("an expired hold does not block renewal", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, nil)
		uow.tx.reads.heldByOther = builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) {
			b.BookID = snap.BookID
			b.ExpiresAt = testTime.Add(-time.Hour)
		}).BuildSnapshot()

		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, owner, snap.ID)
		require.NoError(t, err)
	})

	t.Run("unknown borrow", func(t *testing.T) {
		uow := newFakeUoW()
		svc := newBorrowCommands(uow)
		_, err := svc.Renew(ctx, owner, uuid.New())
		require.ErrorIs(t, err, commands.ErrBorrowNotFound)
	})
}

func TestReturnCommand(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	owner := authz.Principal{ID: ownerID, Role: user.RoleStudent}
	staff := authz.Principal{ID: uuid.New(), Role: user.RoleStaff}

	seedBorrow := func(uow *fakeUoW, mutate func(*builder.BorrowBuilder)) *shared.BorrowSnapshot {
		bb := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.UserID = ownerID
		})
		if mutate != nil {
			bb.With(mutate)
		}
		snap := bb.BuildSnapshot()
		uow.tx.reads.borrows[snap.ID] = snap
		return snap
	}

	t.Run("on time return releases the copy with no fine", func(t *testing.T) {
		uow := newFakeUoW()
		uow.tx.books.incrementRows = 1
		snap := seedBorrow(uow, func(b *builder.BorrowBuilder) {
			b.DueAt = testTime.Add(24 * time.Hour)
		})

		svc := newBorrowCommands(uow)
		result, err := svc.Return(ctx, staff, snap.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(0), result.FineCents)
		require.Len(t, uow.tx.borrows.returns, 1)
		assert.Equal(t, testTime, uow.tx.borrows.returns[0].returnedAt)
		assert.Nil(t, uow.tx.borrows.returns[0].fineCents)

		require.Len(t, uow.tx.books.incremented, 1)
		assert.Equal(t, snap.BookID, uow.tx.books.incremented[0])

		require.Len(t, uow.tx.events.events, 1)
		assert.Equal(t, "return", uow.tx.events.events[0].Kind)
	})

	t.Run("late return fixes the fine at return time", func(t *testing.T) {
		uow := newFakeUoW()
		uow.tx.books.incrementRows = 1
		snap := seedBorrow(uow, func(b *builder.BorrowBuilder) {
			// 2.5 days late rounds up to 3 chargeable days.
			b.DueAt = testTime.Add(-(2*24*time.Hour + 12*time.Hour))
		})

		svc := newBorrowCommands(uow)
		result, err := svc.Return(ctx, staff, snap.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(3*borrow.FineCentsPerDay), result.FineCents)
		require.Len(t, uow.tx.borrows.returns, 1)
		require.NotNil(t, uow.tx.borrows.returns[0].fineCents)
		assert.Equal(t, result.FineCents, *uow.tx.borrows.returns[0].fineCents)
	})

	t.Run("students cannot process returns, not even their own", func(t *testing.T) {
		uow := newFakeUoW()
		snap := seedBorrow(uow, nil)

		svc := newBorrowCommands(uow)
		_, err := svc.Return(ctx, owner, snap.ID)
		require.ErrorIs(t, err, commands.ErrBorrowAccessDenied)
	})

	t.Run("already returned", func(t *testing.T) {
		returnedAt := testTime
		uow := newFakeUoW()
		snap := seedBorrow(uow, func(b *builder.BorrowBuilder) {
			b.Status = "returned"
			b.ReturnedAt = &returnedAt
		})

		svc := newBorrowCommands(uow)
		_, err := svc.Return(ctx, staff, snap.ID)
		require.ErrorIs(t, err, commands.ErrBorrowNotActive)
	})

	t.Run("counter drift on release does not fail the return", func(t *testing.T) {
		uow := newFakeUoW()
		uow.tx.books.incrementRows = 0
		snap := seedBorrow(uow, nil)

		svc := newBorrowCommands(uow)
		_, err := svc.Return(ctx, staff, snap.ID)
		require.NoError(t, err)
		require.Len(t, uow.tx.borrows.returns, 1)
	})
}
