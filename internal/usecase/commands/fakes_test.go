//go:build unit

package commands_test

import (
	"context"
	"time"

	"library-api/internal/domain/book"
	"library-api/internal/domain/borrow"
	"library-api/internal/domain/reservation"
	"library-api/internal/domain/user"
	"library-api/internal/infra"
	"library-api/internal/infra/db"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/google/uuid"
)

// Hand-rolled fakes for the unit-of-work surface. The command services
// only see interfaces, so an in-memory transaction is enough to exercise
// every decision the commands make.

func notFound() error {
	return infra.WrapRepoErr("no rows", nil, infra.KindNotFound)
}

func duplicateKey() error {
	return infra.WrapRepoErr("unique violation", nil, infra.KindDuplicateKey)
}

type fakeReads struct {
	books        map[uuid.UUID]*shared.BookSnapshot
	borrows      map[uuid.UUID]*shared.BorrowSnapshot
	activeBorrow *shared.BorrowSnapshot
	reservations map[uuid.UUID]*shared.ReservationSnapshot
	activeRes    *shared.ReservationSnapshot
	heldByOther  *shared.ReservationSnapshot
}

func newFakeReads() *fakeReads {
	return &fakeReads{
		books:        map[uuid.UUID]*shared.BookSnapshot{},
		borrows:      map[uuid.UUID]*shared.BorrowSnapshot{},
		reservations: map[uuid.UUID]*shared.ReservationSnapshot{},
	}
}

func (r *fakeReads) BookByID(_ context.Context, id uuid.UUID) (*shared.BookSnapshot, error) {
	if snap, ok := r.books[id]; ok {
		return snap, nil
	}
	return nil, notFound()
}

func (r *fakeReads) BorrowByID(_ context.Context, id uuid.UUID) (*shared.BorrowSnapshot, error) {
	if snap, ok := r.borrows[id]; ok {
		return snap, nil
	}
	return nil, notFound()
}

func (r *fakeReads) ActiveBorrow(_ context.Context, userID, bookID uuid.UUID) (*shared.BorrowSnapshot, error) {
	if r.activeBorrow != nil && r.activeBorrow.UserID == userID && r.activeBorrow.BookID == bookID {
		return r.activeBorrow, nil
	}
	return nil, notFound()
}

func (r *fakeReads) ReservationByID(_ context.Context, id uuid.UUID) (*shared.ReservationSnapshot, error) {
	if snap, ok := r.reservations[id]; ok {
		return snap, nil
	}
	return nil, notFound()
}

func (r *fakeReads) ActiveReservation(_ context.Context, userID, bookID uuid.UUID) (*shared.ReservationSnapshot, error) {
	if r.activeRes != nil && r.activeRes.UserID == userID && r.activeRes.BookID == bookID {
		return r.activeRes, nil
	}
	return nil, notFound()
}

func (r *fakeReads) ActiveReservationHeldByOther(_ context.Context, bookID, excludeUserID uuid.UUID) (*shared.ReservationSnapshot, error) {
	if r.heldByOther != nil && r.heldByOther.BookID == bookID && r.heldByOther.UserID != excludeUserID {
		return r.heldByOther, nil
	}
	return nil, notFound()
}

type fakeBookRepo struct {
	decrementRows int64
	incrementRows int64
	decremented   []uuid.UUID
	incremented   []uuid.UUID
	created       []*book.Book
	createErr     error
	archived      []uuid.UUID
	copyCounts    map[uuid.UUID][2]int32
}

func (f *fakeBookRepo) Create(_ context.Context, _ db.DBTX, b *book.Book) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, b)
	return b.ID(), nil
}

func (f *fakeBookRepo) UpdateMetadata(_ context.Context, _ db.DBTX, _ uuid.UUID, _, _ string) error {
	return nil
}

func (f *fakeBookRepo) SetCopyCounts(_ context.Context, _ db.DBTX, id uuid.UUID, total, available int32) error {
	if f.copyCounts == nil {
		f.copyCounts = map[uuid.UUID][2]int32{}
	}
	f.copyCounts[id] = [2]int32{total, available}
	return nil
}

func (f *fakeBookRepo) DecrementAvailable(_ context.Context, _ db.DBTX, id uuid.UUID) (int64, error) {
	f.decremented = append(f.decremented, id)
	return f.decrementRows, nil
}

func (f *fakeBookRepo) IncrementAvailable(_ context.Context, _ db.DBTX, id uuid.UUID) (int64, error) {
	f.incremented = append(f.incremented, id)
	return f.incrementRows, nil
}

func (f *fakeBookRepo) Archive(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	f.archived = append(f.archived, id)
	return nil
}

type renewalRecord struct {
	id           uuid.UUID
	dueAt        time.Time
	renewalCount int32
}

type returnRecord struct {
	id         uuid.UUID
	returnedAt time.Time
	fineCents  *int64
}

type fakeBorrowRepo struct {
	created   []*borrow.Borrow
	createErr error
	renewals  []renewalRecord
	returns   []returnRecord
}

func (f *fakeBorrowRepo) Create(_ context.Context, _ db.DBTX, b *borrow.Borrow) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, b)
	return b.ID(), nil
}

func (f *fakeBorrowRepo) SaveRenewal(_ context.Context, _ db.DBTX, id uuid.UUID, dueAt time.Time, renewalCount int32) error {
	f.renewals = append(f.renewals, renewalRecord{id: id, dueAt: dueAt, renewalCount: renewalCount})
	return nil
}

func (f *fakeBorrowRepo) SaveReturn(_ context.Context, _ db.DBTX, id uuid.UUID, returnedAt time.Time, fineCents *int64) error {
	f.returns = append(f.returns, returnRecord{id: id, returnedAt: returnedAt, fineCents: fineCents})
	return nil
}

type fakeReservationRepo struct {
	created        []*reservation.Reservation
	createErr      error
	deactivated    []uuid.UUID
	consumed       [][2]uuid.UUID
	sweepCount     int64
	sweepTimestamp time.Time
}

func (f *fakeReservationRepo) Create(_ context.Context, _ db.DBTX, r *reservation.Reservation) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, r)
	return r.ID(), nil
}

func (f *fakeReservationRepo) Deactivate(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeReservationRepo) DeactivateForUserAndBook(_ context.Context, _ db.DBTX, userID, bookID uuid.UUID) error {
	f.consumed = append(f.consumed, [2]uuid.UUID{userID, bookID})
	return nil
}

func (f *fakeReservationRepo) DeactivateExpired(_ context.Context, _ db.DBTX, now time.Time) (int64, error) {
	f.sweepTimestamp = now
	return f.sweepCount, nil
}

type fakeUserRepo struct {
	created    []*user.User
	createErr  error
	lastLogins []uuid.UUID
	roleSets   map[uuid.UUID]user.Role
	updateErr  error
}

func (f *fakeUserRepo) Create(_ context.Context, _ db.DBTX, u *user.User) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, u)
	return u.ID(), nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, _ db.DBTX, userID uuid.UUID) error {
	f.lastLogins = append(f.lastLogins, userID)
	return nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, _ db.DBTX, userID uuid.UUID, role user.Role) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.roleSets == nil {
		f.roleSets = map[uuid.UUID]user.Role{}
	}
	f.roleSets[userID] = role
	return nil
}

func (f *fakeUserRepo) Deactivate(_ context.Context, _ db.DBTX, userID uuid.UUID) error {
	return f.updateErr
}

type recordedEvent struct {
	Kind       string
	ActorID    uuid.UUID
	BookID     uuid.UUID
	Payload    string
	OccurredAt time.Time
}

type fakeEventRepo struct {
	events []recordedEvent
}

func (f *fakeEventRepo) Append(_ context.Context, _ db.DBTX, kind string, actorID, bookID uuid.UUID, payload []byte, occurredAt time.Time) error {
	f.events = append(f.events, recordedEvent{
		Kind:       kind,
		ActorID:    actorID,
		BookID:     bookID,
		Payload:    string(payload),
		OccurredAt: occurredAt,
	})
	return nil
}

type fakeTx struct {
	books        *fakeBookRepo
	borrows      *fakeBorrowRepo
	reservations *fakeReservationRepo
	users        *fakeUserRepo
	events       *fakeEventRepo
	reads        *fakeReads
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		books:        &fakeBookRepo{},
		borrows:      &fakeBorrowRepo{},
		reservations: &fakeReservationRepo{},
		users:        &fakeUserRepo{},
		events:       &fakeEventRepo{},
		reads:        newFakeReads(),
	}
}

func (t *fakeTx) Books() shared.BookRepository               { return t.books }
func (t *fakeTx) Borrows() shared.BorrowRepository           { return t.borrows }
func (t *fakeTx) Reservations() shared.ReservationRepository { return t.reservations }
func (t *fakeTx) Users() shared.UserRepository               { return t.users }
func (t *fakeTx) Events() shared.LendingEventRepository      { return t.events }
func (t *fakeTx) Reads() shared.CommandReads                 { return t.reads }
func (t *fakeTx) DB() db.DBTX                                { return nil }

type fakeUoW struct {
	tx *fakeTx
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{tx: newFakeTx()}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *fakeUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) CommandReads() shared.CommandReads {
	return u.tx.reads
}

type fakeBorrowReadStore struct {
	view *queries.BorrowView
}

func (f *fakeBorrowReadStore) FindByID(_ context.Context, id uuid.UUID) (*queries.BorrowView, error) {
	if f.view == nil {
		return nil, notFound()
	}
	v := *f.view
	v.ID = id
	return &v, nil
}

func (f *fakeBorrowReadStore) FindByUser(_ context.Context, _ uuid.UUID, _, _ int32) ([]*queries.BorrowView, int64, error) {
	return nil, 0, nil
}

func (f *fakeBorrowReadStore) FindAll(_ context.Context, _ queries.BorrowListFilter, _, _ int32) ([]*queries.BorrowView, int64, error) {
	return nil, 0, nil
}

func (f *fakeBorrowReadStore) FindOverdue(_ context.Context, _, _ int32) ([]*queries.BorrowView, int64, error) {
	return nil, 0, nil
}

type fakeReservationReadStore struct {
	view *queries.ReservationView
}

func (f *fakeReservationReadStore) FindByID(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	if f.view == nil {
		return nil, notFound()
	}
	v := *f.view
	v.ID = id
	return &v, nil
}

func (f *fakeReservationReadStore) FindByUser(_ context.Context, _ uuid.UUID, _, _ int32) ([]*queries.ReservationView, int64, error) {
	return nil, 0, nil
}
