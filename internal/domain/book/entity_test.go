//go:build unit

package book_test

import (
	"testing"
	"time"

	"library-api/internal/domain/book"
	"library-api/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.BookBuilder)
	errIs  error
}

func TestNewBook(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewBookBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, "9784873119694", actual.ISBN().Value())
		assert.Equal(t, book.StatusActive, actual.Status())
		assert.Equal(t, actual.TotalCopies(), actual.AvailableCopies())
	})

	t.Run("validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "isbn-10 with check character",
				mutate: func(b *builder.BookBuilder) { b.ISBN = "0-8044-2957-X" },
			},
			{
				name:   "isbn-13 with hyphens",
				mutate: func(b *builder.BookBuilder) { b.ISBN = "978-4-87311-969-4" },
			},
			{
				name:   "isbn with wrong length",
				mutate: func(b *builder.BookBuilder) { b.ISBN = "12345" },
				errIs:  book.ErrInvalidISBN,
			},
			{
				name:   "isbn with letters",
				mutate: func(b *builder.BookBuilder) { b.ISBN = "97848731196AB" },
				errIs:  book.ErrInvalidISBN,
			},
			{
				name:   "empty title",
				mutate: func(b *builder.BookBuilder) { b.Title = "   " },
				errIs:  book.ErrEmptyTitle,
			},
			{
				name:   "empty author",
				mutate: func(b *builder.BookBuilder) { b.Author = "" },
				errIs:  book.ErrEmptyAuthor,
			},
			{
				name:   "zero copies",
				mutate: func(b *builder.BookBuilder) { b.TotalCopies = 0 },
				errIs:  book.ErrInvalidCount,
			},
			{
				name:   "negative copies",
				mutate: func(b *builder.BookBuilder) { b.TotalCopies = -1 },
				errIs:  book.ErrInvalidCount,
			},
		})
	})
}

func TestAdjustTotalCopies(t *testing.T) {
	t.Run("growing adds available copies", func(t *testing.T) {
		b := mustBuild(t, func(b *builder.BookBuilder) {
			b.TotalCopies = 3
		})

		require.NoError(t, b.AdjustTotalCopies(5))
		assert.Equal(t, int32(5), b.TotalCopies())
		assert.Equal(t, int32(5), b.AvailableCopies())
	})

	t.Run("shrinking preserves the borrowed count", func(t *testing.T) {
		// 5 total, 2 out on loan. Shrinking to 3 leaves 1 available.
		b := reconstruct(t, 5, 3)

		require.NoError(t, b.AdjustTotalCopies(3))
		assert.Equal(t, int32(3), b.TotalCopies())
		assert.Equal(t, int32(1), b.AvailableCopies())
	})

	t.Run("cannot shrink below borrowed copies", func(t *testing.T) {
		b := reconstruct(t, 5, 2)

		require.ErrorIs(t, b.AdjustTotalCopies(2), book.ErrCopiesBelowBorrowed)
		assert.Equal(t, int32(5), b.TotalCopies())
	})

	t.Run("zero or negative total is rejected", func(t *testing.T) {
		b := mustBuild(t, nil)
		require.ErrorIs(t, b.AdjustTotalCopies(0), book.ErrInvalidCount)
	})

	t.Run("archived book cannot be adjusted", func(t *testing.T) {
		b := mustBuild(t, nil)
		b.Archive()
		require.ErrorIs(t, b.AdjustTotalCopies(10), book.ErrArchived)
	})
}

func TestArchive(t *testing.T) {
	b := mustBuild(t, nil)
	require.False(t, b.IsArchived())

	b.Archive()
	assert.True(t, b.IsArchived())
	assert.Equal(t, book.StatusArchived, b.Status())

	title, err := book.NewTitle("New Title")
	require.NoError(t, err)
	author, err := book.NewAuthor("New Author")
	require.NoError(t, err)
	require.ErrorIs(t, b.Rename(title, author), book.ErrArchived)
}

func mustBuild(t *testing.T, mutate func(*builder.BookBuilder)) *book.Book {
	t.Helper()
	bb := builder.NewBookBuilder()
	if mutate != nil {
		bb.With(mutate)
	}
	b, err := bb.BuildDomain()
	require.NoError(t, err)
	return b
}

func reconstruct(t *testing.T, total, available int32) *book.Book {
	t.Helper()
	now := time.Now()
	return book.ReconstructBook(
		uuid.New(), mustISBN(t), mustTitle(t), mustAuthor(t),
		total, available, book.StatusActive, now, now,
	)
}

func mustISBN(t *testing.T) book.ISBN {
	t.Helper()
	isbn, err := book.NewISBN("9784873119694")
	require.NoError(t, err)
	return isbn
}

func mustTitle(t *testing.T) book.Title {
	t.Helper()
	title, err := book.NewTitle("The Go Programming Language")
	require.NoError(t, err)
	return title
}

func mustAuthor(t *testing.T) book.Author {
	t.Helper()
	author, err := book.NewAuthor("Alan Donovan")
	require.NoError(t, err)
	return author
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewBookBuilder().With(c.mutate).BuildDomain()

			if c.errIs == nil {
				require.NotNil(t, actual)
				require.NoError(t, err)
			} else {
				require.Nil(t, actual)
				require.Error(t, err)
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}
