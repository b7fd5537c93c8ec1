//go:build unit || e2e

package builder

import (
	"time"

	"library-api/internal/domain/book"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookBuilder struct {
	ID              uuid.UUID
	ISBN            string
	Title           string
	Author          string
	TotalCopies     int32
	AvailableCopies int32
	Status          string
}

func NewBookBuilder() *BookBuilder {
	return &BookBuilder{
		ID:              uuid.New(),
		ISBN:            "9784873119694",
		Title:           "The Go Programming Language",
		Author:          "Alan Donovan",
		TotalCopies:     3,
		AvailableCopies: 3,
		Status:          "active",
	}
}

func (b *BookBuilder) With(mutate func(*BookBuilder)) *BookBuilder {
	mutate(b)
	return b
}

func (b *BookBuilder) BuildDomain() (*book.Book, error) {
	isbn, err := book.NewISBN(b.ISBN)
	if err != nil {
		return nil, err
	}
	title, err := book.NewTitle(b.Title)
	if err != nil {
		return nil, err
	}
	author, err := book.NewAuthor(b.Author)
	if err != nil {
		return nil, err
	}
	return book.NewBook(isbn, title, author, b.TotalCopies)
}

func (b *BookBuilder) BuildSnapshot() *shared.BookSnapshot {
	return &shared.BookSnapshot{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          b.Status,
	}
}

func (b *BookBuilder) BuildReadModel() *queries.BookView {
	now := time.Now()
	return &queries.BookView{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          b.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
