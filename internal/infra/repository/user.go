package repository

import (
	"context"

	"library-api/internal/domain/user"
	"library-api/internal/infra"
	"library-api/internal/infra/db"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) Create(ctx context.Context, tx db.DBTX, u *user.User) (uuid.UUID, error) {
	sql, args, err := dialect.Insert("users").
		Rows(goqu.Record{
			"id":            u.ID(),
			"email":         u.Email().Value(),
			"password_hash": u.PasswordHash(),
			"role":          u.Role().String(),
			"is_active":     u.IsActive(),
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to build insert user query", err)
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create user", err)
	}
	return id, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, tx db.DBTX, userID uuid.UUID) error {
	sql, args, err := dialect.Update("users").
		Set(goqu.Record{
			"last_login": goqu.L("now()"),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(userID)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build last login query", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return infra.WrapRepoErr("failed to update last login", err)
	}
	return nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, tx db.DBTX, userID uuid.UUID, role user.Role) error {
	sql, args, err := dialect.Update("users").
		Set(goqu.Record{
			"role":       role.String(),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(userID)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build update role query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update role", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *UserRepository) Deactivate(ctx context.Context, tx db.DBTX, userID uuid.UUID) error {
	sql, args, err := dialect.Update("users").
		Set(goqu.Record{
			"is_active":  false,
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(userID)).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build deactivate user query", err)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to deactivate user", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return nil
}
