package readstore

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/pgconv"
	"library-api/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
)

var dialect = goqu.Dialect("postgres")

var bookColumns = []any{"id", "isbn", "title", "author", "total_copies", "available_copies", "status", "created_at", "updated_at"}

type BookReadStore struct {
	db db.DBTX
}

func NewBookReadStore(dbtx db.DBTX) *BookReadStore {
	return &BookReadStore{db: dbtx}
}

func (r *BookReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookView, error) {
	sql, args, err := dialect.From("books").
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find book query", err)
	}

	view, err := scanBookView(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("book not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find book by ID", err)
	}
	return view, nil
}

// Search matches title, author, or ISBN; an empty term lists everything.
func (r *BookReadStore) Search(ctx context.Context, search string, limit, offset int32) ([]*queries.BookView, int64, error) {
	conditions := make([]goqu.Expression, 0, 1)
	if search != "" {
		pattern := "%" + search + "%"
		conditions = append(conditions, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").Eq(search),
		))
	}

	countSQL, countArgs, err := dialect.From("books").
		Select(goqu.COUNT(goqu.Star())).
		Where(conditions...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build count books query", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to count books", err)
	}

	sql, args, err := dialect.From("books").
		Select(bookColumns...).
		Where(conditions...).
		Order(goqu.I("title").Asc(), goqu.I("id").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build search books query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to search books", err)
	}
	defer rows.Close()

	result := make([]*queries.BookView, 0, limit)
	for rows.Next() {
		view, scanErr := scanBookView(rows)
		if scanErr != nil {
			return nil, 0, infra.WrapRepoErr("failed to scan book row", scanErr)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to iterate book rows", err)
	}

	return result, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookView(row rowScanner) (*queries.BookView, error) {
	var view queries.BookView
	err := row.Scan(
		&view.ID,
		&view.ISBN,
		&view.Title,
		&view.Author,
		&view.TotalCopies,
		&view.AvailableCopies,
		&view.Status,
		&view.CreatedAt,
		&view.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
