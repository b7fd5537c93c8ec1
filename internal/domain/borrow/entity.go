package borrow

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotActive           = errors.New("borrow is not active")
	ErrRenewalLimitReached = errors.New("renewal limit reached")
	ErrAlreadyReturned     = errors.New("borrow already returned")
)

// Borrow is one checkout of one copy. ACTIVE -> RETURNED is the only
// transition; a returned borrow is immutable. Overdue is never stored,
// it is derived from dueAt against the current time.
type Borrow struct {
	id           uuid.UUID
	userID       uuid.UUID
	bookID       uuid.UUID
	borrowedAt   time.Time
	dueAt        time.Time
	returnedAt   *time.Time
	status       Status
	renewalCount int32
	fineCents    *int64
}

func NewBorrow(userID, bookID uuid.UUID, now time.Time) *Borrow {
	return &Borrow{
		id:         uuid.New(),
		userID:     userID,
		bookID:     bookID,
		borrowedAt: now,
		dueAt:      now.Add(LoanPeriod),
		status:     StatusActive,
	}
}

func ReconstructBorrow(
	id, userID, bookID uuid.UUID,
	borrowedAt, dueAt time.Time,
	returnedAt *time.Time,
	status Status,
	renewalCount int32,
	fineCents *int64,
) *Borrow {
	return &Borrow{
		id:           id,
		userID:       userID,
		bookID:       bookID,
		borrowedAt:   borrowedAt,
		dueAt:        dueAt,
		returnedAt:   returnedAt,
		status:       status,
		renewalCount: renewalCount,
		fineCents:    fineCents,
	}
}

// Renew extends the due date by one loan period counted from the current
// due date, not from now, so consecutive renewals stack.
func (b *Borrow) Renew() error {
	if b.status != StatusActive {
		return ErrNotActive
	}
	if b.renewalCount >= MaxRenewals {
		return ErrRenewalLimitReached
	}
	b.dueAt = b.dueAt.Add(LoanPeriod)
	b.renewalCount++
	return nil
}

// Return closes the borrow and computes the fine for the copy being
// handed back late. The fine is fixed at return time; the caller is
// responsible for giving the copy back to the book's available pool.
func (b *Borrow) Return(now time.Time) (int64, error) {
	if b.status != StatusActive {
		return 0, ErrAlreadyReturned
	}
	fine := FineFor(b.dueAt, now)
	b.status = StatusReturned
	b.returnedAt = &now
	if fine > 0 {
		b.fineCents = &fine
	}
	return fine, nil
}

func (b *Borrow) IsOverdue(now time.Time) bool {
	return b.status == StatusActive && now.After(b.dueAt)
}

func (b *Borrow) DaysOverdue(now time.Time) int64 {
	if !b.IsOverdue(now) {
		return 0
	}
	return ceilDays(now.Sub(b.dueAt))
}

// ProjectedFineCents is the fine that would be charged if the borrow were
// returned now. Display only; nothing is persisted until actual return.
func (b *Borrow) ProjectedFineCents(now time.Time) int64 {
	if !b.IsOverdue(now) {
		return 0
	}
	return FineFor(b.dueAt, now)
}

// FineFor charges FineCentsPerDay per started day past due.
func FineFor(dueAt, returnedAt time.Time) int64 {
	if !returnedAt.After(dueAt) {
		return 0
	}
	return ceilDays(returnedAt.Sub(dueAt)) * FineCentsPerDay
}

func ceilDays(d time.Duration) int64 {
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func (b *Borrow) ID() uuid.UUID          { return b.id }
func (b *Borrow) UserID() uuid.UUID      { return b.userID }
func (b *Borrow) BookID() uuid.UUID      { return b.bookID }
func (b *Borrow) BorrowedAt() time.Time  { return b.borrowedAt }
func (b *Borrow) DueAt() time.Time       { return b.dueAt }
func (b *Borrow) ReturnedAt() *time.Time { return b.returnedAt }
func (b *Borrow) Status() Status         { return b.status }
func (b *Borrow) RenewalCount() int32    { return b.renewalCount }
func (b *Borrow) FineCents() *int64      { return b.fineCents }
