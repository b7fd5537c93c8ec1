package response

import (
	"time"

	"library-api/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BorrowResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	UserEmail    string     `json:"user_email"`
	BookID       uuid.UUID  `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	BorrowedAt   time.Time  `json:"borrowed_at"`
	DueAt        time.Time  `json:"due_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	Status       string     `json:"status"`
	RenewalCount int32      `json:"renewal_count"`
	FineCents    *int64     `json:"fine_cents,omitempty"`
}

type OverdueBorrowResponse struct {
	BorrowResponse
	DaysOverdue        int64 `json:"days_overdue"`
	ProjectedFineCents int64 `json:"projected_fine_cents"`
}

type ReturnResponse struct {
	Borrow    *BorrowResponse `json:"borrow"`
	FineCents int64           `json:"fine_cents"`
}

func NewBorrowResponse(v *queries.BorrowView) *BorrowResponse {
	var resp BorrowResponse
	_ = copier.Copy(&resp, v)
	return &resp
}

func NewOverdueBorrowResponse(v *queries.OverdueBorrowView) *OverdueBorrowResponse {
	var resp OverdueBorrowResponse
	_ = copier.Copy(&resp.BorrowResponse, &v.BorrowView)
	resp.DaysOverdue = v.DaysOverdue
	resp.ProjectedFineCents = v.ProjectedFineCents
	return &resp
}
