package book

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrArchived            = errors.New("book is archived")
	ErrCopiesBelowBorrowed = errors.New("total copies cannot drop below borrowed copies")
)

// Book aggregate. Invariant: availableCopies = totalCopies - count of
// active borrows, with 0 <= availableCopies <= totalCopies. The counters
// themselves are adjusted through conditional UPDATEs in the repository;
// the entity carries the catalog-level rules (creation, metadata,
// copy-count adjustment, archival).
type Book struct {
	id              uuid.UUID
	isbn            ISBN
	title           Title
	author          Author
	totalCopies     int32
	availableCopies int32
	status          Status
	createdAt       time.Time
	updatedAt       time.Time
}

// NewBook registers a catalog entry; every copy starts available.
func NewBook(isbn ISBN, title Title, author Author, totalCopies int32) (*Book, error) {
	if totalCopies <= 0 {
		return nil, ErrInvalidCount
	}
	return &Book{
		id:              uuid.New(),
		isbn:            isbn,
		title:           title,
		author:          author,
		totalCopies:     totalCopies,
		availableCopies: totalCopies,
		status:          StatusActive,
	}, nil
}

func ReconstructBook(
	id uuid.UUID,
	isbn ISBN,
	title Title,
	author Author,
	totalCopies, availableCopies int32,
	status Status,
	createdAt, updatedAt time.Time,
) *Book {
	return &Book{
		id:              id,
		isbn:            isbn,
		title:           title,
		author:          author,
		totalCopies:     totalCopies,
		availableCopies: availableCopies,
		status:          status,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// AdjustTotalCopies changes the size of the holding. The delta between
// old and new total is applied to availableCopies as well, so the number
// of copies currently out on loan is preserved. Shrinking below the
// borrowed count is rejected.
func (b *Book) AdjustTotalCopies(newTotal int32) error {
	if b.status == StatusArchived {
		return ErrArchived
	}
	if newTotal <= 0 {
		return ErrInvalidCount
	}
	borrowed := b.totalCopies - b.availableCopies
	if newTotal < borrowed {
		return ErrCopiesBelowBorrowed
	}
	b.availableCopies = newTotal - borrowed
	b.totalCopies = newTotal
	return nil
}

func (b *Book) Rename(title Title, author Author) error {
	if b.status == StatusArchived {
		return ErrArchived
	}
	b.title = title
	b.author = author
	return nil
}

// Archive removes the book from circulation. Outstanding borrows stay
// valid and can still be returned.
func (b *Book) Archive() {
	b.status = StatusArchived
}

func (b *Book) IsArchived() bool {
	return b.status == StatusArchived
}

func (b *Book) HasAvailableCopy() bool {
	return b.availableCopies > 0
}

func (b *Book) ID() uuid.UUID          { return b.id }
func (b *Book) ISBN() ISBN             { return b.isbn }
func (b *Book) Title() Title           { return b.title }
func (b *Book) Author() Author         { return b.author }
func (b *Book) TotalCopies() int32     { return b.totalCopies }
func (b *Book) AvailableCopies() int32 { return b.availableCopies }
func (b *Book) Status() Status         { return b.status }
func (b *Book) CreatedAt() time.Time   { return b.createdAt }
func (b *Book) UpdatedAt() time.Time   { return b.updatedAt }
