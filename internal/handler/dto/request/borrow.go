package request

import "github.com/google/uuid"

type CheckoutRequest struct {
	BookID uuid.UUID `json:"book_id" binding:"required"`
}
