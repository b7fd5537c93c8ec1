package commands

import (
	"context"
	"time"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/book"
	"library-api/internal/infra"
	"library-api/internal/pkg/errs"
	"library-api/internal/pkg/patch"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrBookAccessDenied    = errs.New("book management denied")
	ErrDuplicateISBN       = errs.New("ISBN already registered")
	ErrBookValidation      = errs.New("book validation error")
	ErrCopiesBelowBorrowed = errs.New("total copies below borrowed count")
)

type CreateBookInput struct {
	ISBN        string
	Title       string
	Author      string
	TotalCopies int32
}

// UpdateBookInput carries a partial metadata patch; nil means keep.
type UpdateBookInput struct {
	Title  *string
	Author *string
}

type BookCommands interface {
	Create(ctx context.Context, actor authz.Principal, input CreateBookInput) (*queries.BookView, error)
	UpdateMetadata(ctx context.Context, actor authz.Principal, bookID uuid.UUID, input UpdateBookInput) (*queries.BookView, error)
	AdjustCopies(ctx context.Context, actor authz.Principal, bookID uuid.UUID, totalCopies int32) (*queries.BookView, error)
	Archive(ctx context.Context, actor authz.Principal, bookID uuid.UUID) error
}

type bookCommandsImpl struct {
	uow       shared.UnitOfWork
	readStore queries.BookReadStore
}

func NewBookCommands(uow shared.UnitOfWork, readStore queries.BookReadStore) BookCommands {
	return &bookCommandsImpl{
		uow:       uow,
		readStore: readStore,
	}
}

func (c *bookCommandsImpl) Create(ctx context.Context, actor authz.Principal, input CreateBookInput) (*queries.BookView, error) {
	if !authz.Can(actor, authz.ActionBookManage, authz.Resource{}) {
		return nil, ErrBookAccessDenied
	}

	isbn, err := book.NewISBN(input.ISBN)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}
	title, err := book.NewTitle(input.Title)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}
	author, err := book.NewAuthor(input.Author)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}

	b, err := book.NewBook(isbn, title, author, input.TotalCopies)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Books().Create(ctx, tx.DB(), b); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDuplicateISBN
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, b.ID())
}

func (c *bookCommandsImpl) UpdateMetadata(ctx context.Context, actor authz.Principal, bookID uuid.UUID, input UpdateBookInput) (*queries.BookView, error) {
	if !authz.Can(actor, authz.ActionBookManage, authz.Resource{}) {
		return nil, ErrBookAccessDenied
	}

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.loadBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		title, err := book.NewTitle(patch.Coalesce(input.Title, b.Title().Value()))
		if err != nil {
			return errs.Mark(err, ErrBookValidation)
		}
		author, err := book.NewAuthor(patch.Coalesce(input.Author, b.Author().Value()))
		if err != nil {
			return errs.Mark(err, ErrBookValidation)
		}

		if err := b.Rename(title, author); err != nil {
			return ErrBookArchived
		}

		return tx.Books().UpdateMetadata(ctx, tx.DB(), bookID, b.Title().Value(), b.Author().Value())
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, bookID)
}

// AdjustCopies resizes the holding while keeping the number of copies out
// on loan intact, so the counters stay consistent with active borrows.
func (c *bookCommandsImpl) AdjustCopies(ctx context.Context, actor authz.Principal, bookID uuid.UUID, totalCopies int32) (*queries.BookView, error) {
	if !authz.Can(actor, authz.ActionBookManage, authz.Resource{}) {
		return nil, ErrBookAccessDenied
	}

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := c.loadBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		if err := b.AdjustTotalCopies(totalCopies); err != nil {
			switch err {
			case book.ErrArchived:
				return ErrBookArchived
			case book.ErrCopiesBelowBorrowed:
				return ErrCopiesBelowBorrowed
			default:
				return errs.Mark(err, ErrBookValidation)
			}
		}

		return tx.Books().SetCopyCounts(ctx, tx.DB(), bookID, b.TotalCopies(), b.AvailableCopies())
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, bookID)
}

// Archive is a soft removal; outstanding borrows remain returnable.
func (c *bookCommandsImpl) Archive(ctx context.Context, actor authz.Principal, bookID uuid.UUID) error {
	if !authz.Can(actor, authz.ActionBookManage, authz.Resource{}) {
		return ErrBookAccessDenied
	}

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := c.loadBook(ctx, tx, bookID); err != nil {
			return err
		}
		return tx.Books().Archive(ctx, tx.DB(), bookID)
	})
}

func (c *bookCommandsImpl) loadBook(ctx context.Context, tx shared.Tx, bookID uuid.UUID) (*book.Book, error) {
	snap, err := tx.Reads().BookByID(ctx, bookID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	isbn, err := book.NewISBN(snap.ISBN)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}
	title, err := book.NewTitle(snap.Title)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}
	author, err := book.NewAuthor(snap.Author)
	if err != nil {
		return nil, errs.Mark(err, ErrBookValidation)
	}

	return book.ReconstructBook(
		snap.ID, isbn, title, author,
		snap.TotalCopies, snap.AvailableCopies,
		book.Status(snap.Status),
		// createdAt/updatedAt are read-side concerns; zero values here.
		time.Time{}, time.Time{},
	), nil
}
