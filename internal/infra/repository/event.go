package repository

import (
	"context"
	"time"

	"library-api/internal/infra"
	"library-api/internal/infra/db"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

// LendingEventRepository appends to the audit trail behind the staff
// activity feed. Rows are never updated or deleted.
type LendingEventRepository struct{}

func NewLendingEventRepository() *LendingEventRepository {
	return &LendingEventRepository{}
}

func (r *LendingEventRepository) Append(ctx context.Context, tx db.DBTX, kind string, actorID uuid.UUID, bookID uuid.UUID, payload []byte, occurredAt time.Time) error {
	sql, args, err := dialect.Insert("lending_events").
		Rows(goqu.Record{
			"id":          uuid.New(),
			"kind":        kind,
			"actor_id":    actorID,
			"book_id":     bookID,
			"payload":     payload,
			"occurred_at": occurredAt,
		}).
		Prepared(true).ToSQL()
	if err != nil {
		return infra.WrapRepoErr("failed to build append event query", err)
	}

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return infra.WrapRepoErr("failed to append lending event", err)
	}
	return nil
}
