package commands

import (
	"context"

	"github.com/google/uuid"
)

// RefreshTokenStore tracks the single valid refresh token per user.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID uuid.UUID, token string) error
	Validate(ctx context.Context, userID uuid.UUID, token string) error
	Revoke(ctx context.Context, userID uuid.UUID) error
}

// Lending event kinds recorded in the audit stream.
const (
	EventCheckout          = "checkout"
	EventRenewal           = "renewal"
	EventReturn            = "return"
	EventReservation       = "reservation"
	EventReservationCancel = "reservation_cancel"
)
