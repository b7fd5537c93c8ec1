package shared

import (
	"time"

	"github.com/google/uuid"
)

// Minimal snapshots for command-side reads. The write side never depends
// on the read-side view types (CQRS separation).

type BookSnapshot struct {
	ID              uuid.UUID
	ISBN            string
	Title           string
	Author          string
	TotalCopies     int32
	AvailableCopies int32
	Status          string
}

type BorrowSnapshot struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BookID       uuid.UUID
	BorrowedAt   time.Time
	DueAt        time.Time
	ReturnedAt   *time.Time
	Status       string
	RenewalCount int32
	FineCents    *int64
}

type ReservationSnapshot struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	BookID     uuid.UUID
	ReservedAt time.Time
	ExpiresAt  time.Time
	IsActive   bool
}
