package queries

import (
	"time"

	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Page is the envelope every list endpoint returns.
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPage[T any](items []T, page, limit int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Page[T]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// BookView represents read-optimized book data
type BookView struct {
	ID              uuid.UUID `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	TotalCopies     int32     `json:"total_copies"`
	AvailableCopies int32     `json:"available_copies"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BorrowView joins in the book title and borrower email for display.
type BorrowView struct {
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

// OverdueBorrowView annotates an active overdue borrow with the values
// display needs; the projected fine is never persisted.
type OverdueBorrowView struct {
	BorrowView
	DaysOverdue        int64 `json:"days_overdue"`
	ProjectedFineCents int64 `json:"projected_fine_cents"`
}

type ReservationView struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	BookID     uuid.UUID `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	ReservedAt time.Time `json:"reserved_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsActive   bool      `json:"is_active"`
}

// AuthorizedUserView represents read-optimized user data with authorization info
type AuthorizedUserView struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type DashboardView struct {
	TotalBooks           int64            `json:"total_books"`
	TotalCopies          int64            `json:"total_copies"`
	AvailableCopies      int64            `json:"available_copies"`
	ActiveBorrows        int64            `json:"active_borrows"`
	OverdueBorrows       int64            `json:"overdue_borrows"`
	ActiveReservations   int64            `json:"active_reservations"`
	OutstandingFineCents int64            `json:"outstanding_fine_cents"`
	CollectedFineCents   int64            `json:"collected_fine_cents"`
	TopBorrowedBooks     []TopBorrowedRow `json:"top_borrowed_books"`
}

type TopBorrowedRow struct {
	BookID      uuid.UUID `json:"book_id"`
	Title       string    `json:"title"`
	BorrowCount int64     `json:"borrow_count"`
}

type LendingEventView struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	ActorID    uuid.UUID `json:"actor_id"`
	BookID     uuid.UUID `json:"book_id"`
	Payload    []byte    `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}
