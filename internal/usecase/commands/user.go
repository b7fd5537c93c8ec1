package commands

import (
	"context"

	"library-api/internal/domain/authz"
	"library-api/internal/domain/user"
	"library-api/internal/infra"
	"library-api/internal/pkg/errs"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrUserAccessDenied = errs.New("user management denied")
	ErrInvalidRole      = errs.New("invalid role")
)

type UserCommands interface {
	ChangeRole(ctx context.Context, actor authz.Principal, userID uuid.UUID, role string) (*queries.AuthorizedUserView, error)
	Deactivate(ctx context.Context, actor authz.Principal, userID uuid.UUID) error
}

type userCommandsImpl struct {
	uow          shared.UnitOfWork
	readStore    queries.UserReadStore
	sessionStore RefreshTokenStore
}

func NewUserCommands(uow shared.UnitOfWork, readStore queries.UserReadStore, sessionStore RefreshTokenStore) UserCommands {
	return &userCommandsImpl{
		uow:          uow,
		readStore:    readStore,
		sessionStore: sessionStore,
	}
}

func (c *userCommandsImpl) ChangeRole(ctx context.Context, actor authz.Principal, userID uuid.UUID, role string) (*queries.AuthorizedUserView, error) {
	if !authz.Can(actor, authz.ActionUserManage, authz.Resource{}) {
		return nil, ErrUserAccessDenied
	}

	newRole, err := user.NewRole(role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Users().UpdateRole(ctx, tx.DB(), userID, newRole); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.readStore.FindByID(ctx, userID)
}

// Deactivate locks the account and revokes its refresh session, so the
// user is cut off as soon as the current access token expires.
func (c *userCommandsImpl) Deactivate(ctx context.Context, actor authz.Principal, userID uuid.UUID) error {
	if !authz.Can(actor, authz.ActionUserManage, authz.Resource{}) {
		return ErrUserAccessDenied
	}

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Users().Deactivate(ctx, tx.DB(), userID); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.sessionStore.Revoke(ctx, userID)
}
