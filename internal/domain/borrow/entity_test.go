//go:build unit

package borrow_test

import (
	"testing"
	"time"

	"library-api/internal/domain/borrow"
	"library-api/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBorrow(t *testing.T) {
	userID := uuid.New()
	bookID := uuid.New()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	b := borrow.NewBorrow(userID, bookID, now)

	assert.NotEqual(t, uuid.Nil, b.ID())
	assert.Equal(t, userID, b.UserID())
	assert.Equal(t, bookID, b.BookID())
	assert.Equal(t, now, b.BorrowedAt())
	assert.Equal(t, now.Add(14*24*time.Hour), b.DueAt())
	assert.Equal(t, borrow.StatusActive, b.Status())
	assert.Equal(t, int32(0), b.RenewalCount())
	assert.Nil(t, b.ReturnedAt())
	assert.Nil(t, b.FineCents())
}

func TestRenew(t *testing.T) {
	t.Run("renewals stack from the current due date", func(t *testing.T) {
		// Borrowed Jan 1, due Jan 15. Renewing on Jan 10 and again on
		// Jan 20 pushes the due date to Jan 29 and Feb 12 regardless of
		// when the renewals happen.
		borrowedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.BorrowedAt = borrowedAt
			b.DueAt = borrowedAt.Add(borrow.LoanPeriod)
		}).BuildDomain()

		require.NoError(t, b.Renew())
		assert.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), b.DueAt())
		assert.Equal(t, int32(1), b.RenewalCount())

		require.NoError(t, b.Renew())
		assert.Equal(t, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), b.DueAt())
		assert.Equal(t, int32(2), b.RenewalCount())
	})

	t.Run("third renewal is rejected", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.RenewalCount = borrow.MaxRenewals
		}).BuildDomain()

		err := b.Renew()
		require.ErrorIs(t, err, borrow.ErrRenewalLimitReached)
	})

	t.Run("returned borrow cannot be renewed", func(t *testing.T) {
		returnedAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.Status = "returned"
			b.ReturnedAt = &returnedAt
		}).BuildDomain()

		require.ErrorIs(t, b.Renew(), borrow.ErrNotActive)
	})

	t.Run("overdue borrow can still be renewed", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
		}).BuildDomain()

		require.NoError(t, b.Renew())
		assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), b.DueAt())
	})
}

func TestReturn(t *testing.T) {
	dueAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("on time return has no fine", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		now := dueAt.Add(-time.Hour)
		fine, err := b.Return(now)
		require.NoError(t, err)

		assert.Equal(t, int64(0), fine)
		assert.Equal(t, borrow.StatusReturned, b.Status())
		require.NotNil(t, b.ReturnedAt())
		assert.Equal(t, now, *b.ReturnedAt())
		assert.Nil(t, b.FineCents())
	})

	t.Run("return exactly at due time has no fine", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		fine, err := b.Return(dueAt)
		require.NoError(t, err)
		assert.Equal(t, int64(0), fine)
	})

	t.Run("partial day overdue charges a full day", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		fine, err := b.Return(dueAt.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, int64(borrow.FineCentsPerDay), fine)
		require.NotNil(t, b.FineCents())
		assert.Equal(t, fine, *b.FineCents())
	})

	t.Run("three and a half days overdue charges four days", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		fine, err := b.Return(dueAt.Add(3*24*time.Hour + 12*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(4*borrow.FineCentsPerDay), fine)
	})

	t.Run("exact whole days overdue are not rounded up", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		fine, err := b.Return(dueAt.Add(2 * 24 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2*borrow.FineCentsPerDay), fine)
	})

	t.Run("second return is rejected", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		_, err := b.Return(dueAt)
		require.NoError(t, err)

		_, err = b.Return(dueAt.Add(24 * time.Hour))
		require.ErrorIs(t, err, borrow.ErrAlreadyReturned)
	})
}

func TestOverdue(t *testing.T) {
	dueAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("active borrow past due is overdue", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		assert.False(t, b.IsOverdue(dueAt))
		assert.True(t, b.IsOverdue(dueAt.Add(time.Minute)))
	})

	t.Run("returned borrow is never overdue", func(t *testing.T) {
		returnedAt := dueAt.Add(24 * time.Hour)
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
			b.Status = "returned"
			b.ReturnedAt = &returnedAt
		}).BuildDomain()

		assert.False(t, b.IsOverdue(dueAt.Add(48*time.Hour)))
		assert.Equal(t, int64(0), b.ProjectedFineCents(dueAt.Add(48*time.Hour)))
	})

	t.Run("projected fine matches what a return now would charge", func(t *testing.T) {
		b := builder.NewBorrowBuilder().With(func(b *builder.BorrowBuilder) {
			b.DueAt = dueAt
		}).BuildDomain()

		now := dueAt.Add(24*time.Hour + time.Minute)
		assert.Equal(t, int64(2*borrow.FineCentsPerDay), b.ProjectedFineCents(now))
		assert.Equal(t, int64(2), b.DaysOverdue(now))

		fine, err := b.Return(now)
		require.NoError(t, err)
		assert.Equal(t, int64(2*borrow.FineCentsPerDay), fine)
	})
}
