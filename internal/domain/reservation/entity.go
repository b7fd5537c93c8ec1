package reservation

import (
	"time"

	"github.com/google/uuid"
)

// HoldPeriod is how long a reservation stays active before it expires.
const HoldPeriod = 7 * 24 * time.Hour

// Reservation is a queued claim on a book with no available copies.
// active=true -> active=false is terminal, reached by cancellation, the
// expiry sweep, or the holder borrowing the book.
type Reservation struct {
	id         uuid.UUID
	userID     uuid.UUID
	bookID     uuid.UUID
	reservedAt time.Time
	expiresAt  time.Time
	isActive   bool
}

func NewReservation(userID, bookID uuid.UUID, now time.Time) *Reservation {
	return &Reservation{
		id:         uuid.New(),
		userID:     userID,
		bookID:     bookID,
		reservedAt: now,
		expiresAt:  now.Add(HoldPeriod),
		isActive:   true,
	}
}

func ReconstructReservation(
	id, userID, bookID uuid.UUID,
	reservedAt, expiresAt time.Time,
	isActive bool,
) *Reservation {
	return &Reservation{
		id:         id,
		userID:     userID,
		bookID:     bookID,
		reservedAt: reservedAt,
		expiresAt:  expiresAt,
		isActive:   isActive,
	}
}

// Cancel is idempotent; cancelling an inactive reservation is a no-op.
func (r *Reservation) Cancel() {
	r.isActive = false
}

func (r *Reservation) HasExpired(now time.Time) bool {
	return r.isActive && now.After(r.expiresAt)
}

func (r *Reservation) ID() uuid.UUID         { return r.id }
func (r *Reservation) UserID() uuid.UUID     { return r.userID }
func (r *Reservation) BookID() uuid.UUID     { return r.bookID }
func (r *Reservation) ReservedAt() time.Time { return r.reservedAt }
func (r *Reservation) ExpiresAt() time.Time  { return r.expiresAt }
func (r *Reservation) IsActive() bool        { return r.isActive }
