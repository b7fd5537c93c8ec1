package response

import (
	"encoding/json"
	"time"

	"library-api/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type DashboardResponse struct {
	TotalBooks           int64                `json:"total_books"`
	TotalCopies          int64                `json:"total_copies"`
	AvailableCopies      int64                `json:"available_copies"`
	ActiveBorrows        int64                `json:"active_borrows"`
	OverdueBorrows       int64                `json:"overdue_borrows"`
	ActiveReservations   int64                `json:"active_reservations"`
	OutstandingFineCents int64                `json:"outstanding_fine_cents"`
	CollectedFineCents   int64                `json:"collected_fine_cents"`
	TopBorrowedBooks     []TopBorrowedBookRow `json:"top_borrowed_books"`
}

type TopBorrowedBookRow struct {
	BookID      uuid.UUID `json:"book_id"`
	Title       string    `json:"title"`
	BorrowCount int64     `json:"borrow_count"`
}

type LendingEventResponse struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	ActorID    uuid.UUID       `json:"actor_id"`
	BookID     uuid.UUID       `json:"book_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewDashboardResponse(v *queries.DashboardView) *DashboardResponse {
	var resp DashboardResponse
	_ = copier.Copy(&resp, v)
	return &resp
}

func NewLendingEventResponse(v *queries.LendingEventView) *LendingEventResponse {
	return &LendingEventResponse{
		ID:         v.ID,
		Kind:       v.Kind,
		ActorID:    v.ActorID,
		BookID:     v.BookID,
		Payload:    json.RawMessage(v.Payload),
		OccurredAt: v.OccurredAt,
	}
}
