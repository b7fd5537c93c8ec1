package readstore

import (
	"context"

	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/pkg/pgconv"
	"library-api/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) *UserReadStore {
	return &UserReadStore{db: dbtx}
}

func (r *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.AuthorizedUserView, error) {
	sql, args, err := dialect.From("users").
		Select("id", "email", "role", "is_active", "last_login").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find user query", err)
	}

	view, _, err := scanUserView(r.db.QueryRow(ctx, sql, args...), false)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by ID", err)
	}
	return view, nil
}

// FindByEmail also returns the stored password hash for credential checks.
func (r *UserReadStore) FindByEmail(ctx context.Context, email string) (*queries.AuthorizedUserView, string, error) {
	sql, args, err := dialect.From("users").
		Select("id", "email", "role", "is_active", "last_login", "password_hash").
		Where(goqu.C("email").Eq(email)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, "", infra.WrapRepoErr("failed to build find user by email query", err)
	}

	view, hash, err := scanUserView(r.db.QueryRow(ctx, sql, args...), true)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, "", infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, "", infra.WrapRepoErr("failed to find user by email", err)
	}
	return view, hash, nil
}

func (r *UserReadStore) FindAll(ctx context.Context, limit, offset int32) ([]*queries.AuthorizedUserView, int64, error) {
	countSQL, countArgs, err := dialect.From("users").
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build count users query", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to count users", err)
	}

	sql, args, err := dialect.From("users").
		Select("id", "email", "role", "is_active", "last_login").
		Order(goqu.I("email").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to build list users query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, infra.WrapRepoErr("failed to list users", err)
	}
	defer rows.Close()

	result := make([]*queries.AuthorizedUserView, 0, limit)
	for rows.Next() {
		view, _, scanErr := scanUserView(rows, false)
		if scanErr != nil {
			return nil, 0, infra.WrapRepoErr("failed to scan user row", scanErr)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, infra.WrapRepoErr("failed to iterate user rows", err)
	}

	return result, total, nil
}

func scanUserView(row rowScanner, withHash bool) (*queries.AuthorizedUserView, string, error) {
	var (
		view      queries.AuthorizedUserView
		lastLogin pgtype.Timestamptz
		hash      string
	)
	dest := []any{&view.ID, &view.Email, &view.Role, &view.IsActive, &lastLogin}
	if withHash {
		dest = append(dest, &hash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, "", err
	}
	view.LastLogin = pgconv.TimePtrFromPgtype(lastLogin)
	return &view, hash, nil
}
