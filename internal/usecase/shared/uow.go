package shared

import (
	"context"
	"time"

	"library-api/internal/domain/book"
	"library-api/internal/domain/borrow"
	"library-api/internal/domain/reservation"
	"library-api/internal/domain/user"
	"library-api/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Books() BookRepository
	Borrows() BorrowRepository
	Reservations() ReservationRepository
	Users() UserRepository
	Events() LendingEventRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	BookByID(ctx context.Context, id uuid.UUID) (*BookSnapshot, error)
	BorrowByID(ctx context.Context, id uuid.UUID) (*BorrowSnapshot, error)
	ActiveBorrow(ctx context.Context, userID, bookID uuid.UUID) (*BorrowSnapshot, error)
	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationSnapshot, error)
	ActiveReservation(ctx context.Context, userID, bookID uuid.UUID) (*ReservationSnapshot, error)
	ActiveReservationHeldByOther(ctx context.Context, bookID, excludeUserID uuid.UUID) (*ReservationSnapshot, error)
}

type BookRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *book.Book) (uuid.UUID, error)
	UpdateMetadata(ctx context.Context, tx db.DBTX, id uuid.UUID, title, author string) error
	SetCopyCounts(ctx context.Context, tx db.DBTX, id uuid.UUID, totalCopies, availableCopies int32) error
	// DecrementAvailable is conditional (available_copies > 0); zero rows
	// affected means no copy could be claimed.
	DecrementAvailable(ctx context.Context, tx db.DBTX, id uuid.UUID) (int64, error)
	// IncrementAvailable is conditional (available_copies < total_copies).
	IncrementAvailable(ctx context.Context, tx db.DBTX, id uuid.UUID) (int64, error)
	Archive(ctx context.Context, tx db.DBTX, id uuid.UUID) error
}

type BorrowRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *borrow.Borrow) (uuid.UUID, error)
	SaveRenewal(ctx context.Context, tx db.DBTX, id uuid.UUID, dueAt time.Time, renewalCount int32) error
	SaveReturn(ctx context.Context, tx db.DBTX, id uuid.UUID, returnedAt time.Time, fineCents *int64) error
}

type ReservationRepository interface {
	Create(ctx context.Context, tx db.DBTX, r *reservation.Reservation) (uuid.UUID, error)
	Deactivate(ctx context.Context, tx db.DBTX, id uuid.UUID) error
	// DeactivateForUserAndBook consumes the holder's reservation when the
	// borrow succeeds; no-op when none exists.
	DeactivateForUserAndBook(ctx context.Context, tx db.DBTX, userID, bookID uuid.UUID) error
	DeactivateExpired(ctx context.Context, tx db.DBTX, now time.Time) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, tx db.DBTX, u *user.User) (uuid.UUID, error)
	UpdateLastLogin(ctx context.Context, tx db.DBTX, userID uuid.UUID) error
	UpdateRole(ctx context.Context, tx db.DBTX, userID uuid.UUID, role user.Role) error
	Deactivate(ctx context.Context, tx db.DBTX, userID uuid.UUID) error
}

type LendingEventRepository interface {
	Append(ctx context.Context, tx db.DBTX, kind string, actorID uuid.UUID, bookID uuid.UUID, payload []byte, occurredAt time.Time) error
}
