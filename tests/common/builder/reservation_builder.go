//go:build unit || e2e

package builder

import (
	"time"

	"library-api/internal/domain/reservation"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	BookID     uuid.UUID
	ReservedAt time.Time
	ExpiresAt  time.Time
	IsActive   bool
}

func NewReservationBuilder() *ReservationBuilder {
	reservedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return &ReservationBuilder{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		BookID:     uuid.New(),
		ReservedAt: reservedAt,
		ExpiresAt:  reservedAt.Add(reservation.HoldPeriod),
		IsActive:   true,
	}
}

func (r *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(r)
	return r
}

func (r *ReservationBuilder) BuildDomain() *reservation.Reservation {
	return reservation.ReconstructReservation(
		r.ID, r.UserID, r.BookID,
		r.ReservedAt, r.ExpiresAt, r.IsActive,
	)
}

func (r *ReservationBuilder) BuildSnapshot() *shared.ReservationSnapshot {
	return &shared.ReservationSnapshot{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		ReservedAt: r.ReservedAt,
		ExpiresAt:  r.ExpiresAt,
		IsActive:   r.IsActive,
	}
}

func (r *ReservationBuilder) BuildReadModel() *queries.ReservationView {
	return &queries.ReservationView{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BookTitle:  "The Go Programming Language",
		ReservedAt: r.ReservedAt,
		ExpiresAt:  r.ExpiresAt,
		IsActive:   r.IsActive,
	}
}
