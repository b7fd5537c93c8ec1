package repository

import (
	"context"

	"library-api/internal/domain/book"
	"library-api/internal/infra"
	"library-api/internal/infra/db"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
)

var dialect = goqu.Dialect("postgres")

type BookRepository struct{}

func NewBookRepository() *BookRepository {
	return &BookRepository{}
}

func (r *BookRepository) Create(ctx context.Context, tx db.DBTX, b *book.Book) (uuid.UUID, error) {
	sql, args, err := dialect.Insert("books").
		Rows(goqu.Record{
			"id":               b.ID(),
			"isbn":             b.ISBN().Value(),
			"title":            b.Title().Value(),
			"author":           b.Author().Value(),
			"total_copies":     b.TotalCopies(),
			"available_copies": b.AvailableCopies(),
			"status":           b.Status().String(),
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build insert book query", err)
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create book", err)
	}
	return id, nil
}

func (r *BookRepository) UpdateMetadata(ctx context.Context, tx db.DBTX, id uuid.UUID, title, author string) error {
	sql, args, err := dialect.Update("books").
		Set(goqu.Record{
			"title":      title,
			"author":     author,
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build update book query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update book", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("book not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookRepository) SetCopyCounts(ctx context.Context, tx db.DBTX, id uuid.UUID, totalCopies, availableCopies int32) error {
	sql, args, err := dialect.Update("books").
		Set(goqu.Record{
			"total_copies":     totalCopies,
			"available_copies": availableCopies,
			"updated_at":       goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build set copy counts query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to set copy counts", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("book not found", nil, infra.KindNotFound)
	}
	return nil
}

// Conditional decrement closes the race between two concurrent borrows
// of the last copy; callers must treat zero rows as "no copy available".
func (r *BookRepository) DecrementAvailable(ctx context.Context, tx db.DBTX, id uuid.UUID) (int64, error) {
	sql, args, err := dialect.Update("books").
		Set(goqu.Record{
			"available_copies": goqu.L("available_copies - 1"),
			"updated_at":       goqu.L("now()"),
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("available_copies").Gt(0),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build decrement query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to decrement available copies", err)
	}
	return tag.RowsAffected(), nil
}

func (r *BookRepository) IncrementAvailable(ctx context.Context, tx db.DBTX, id uuid.UUID) (int64, error) {
	sql, args, err := dialect.Update("books").
		Set(goqu.Record{
			"available_copies": goqu.L("available_copies + 1"),
			"updated_at":       goqu.L("now()"),
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("available_copies").Lt(goqu.C("total_copies")),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build increment query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to increment available copies", err)
	}
	return tag.RowsAffected(), nil
}

func (r *BookRepository) Archive(ctx context.Context, tx db.DBTX, id uuid.UUID) error {
	sql, args, err := dialect.Update("books").
		Set(goqu.Record{
			"status":     book.StatusArchived.String(),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build archive query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to archive book", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("book not found", nil, infra.KindNotFound)
	}
	return nil
}
