//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// bcrypt hash of "password123"
const testPasswordHash = "$2a$12$uhAjVE9f92IGYv3E25pJNetg.27lVt0p7jmLWjqjmhOg92ldPS0A."

func CreateTestUser(t *testing.T, db DBLike, email, role string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, "INSERT INTO users (id, email, password_hash, role, is_active) VALUES ($1, $2, $3, $4, true) ON CONFLICT (email) DO NOTHING",
		userID, email, testPasswordHash, role)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	}

	return userID
}

func CreateTestBook(t *testing.T, db DBLike, isbn, title string, total, available int32) uuid.UUID {
	t.Helper()

	bookID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, "INSERT INTO books (id, isbn, title, author, total_copies, available_copies) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (isbn) DO NOTHING",
		bookID, isbn, title, "Test Author", total, available)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM books WHERE isbn = $1", isbn).Scan(&bookID)
	}

	return bookID
}

// BackdateBorrowDue shifts an active borrow's due date into the past so
// return/overdue flows can observe a late borrow without waiting.
func BackdateBorrowDue(t *testing.T, db DBLike, borrowID uuid.UUID, overdueBy time.Duration) {
	t.Helper()

	ctx := context.Background()
	dueAt := time.Now().Add(-overdueBy)
	tag, err := db.Exec(ctx, "UPDATE borrows SET due_at = $1 WHERE id = $2", dueAt, borrowID)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

// ExpireReservation shifts an active reservation's expiry into the past.
func ExpireReservation(t *testing.T, db DBLike, reservationID uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	tag, err := db.Exec(ctx, "UPDATE reservations SET expires_at = now() - interval '1 hour' WHERE id = $1", reservationID)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

// The lending schema carries no reference tables; every test seeds its
// own users and books. Kept as the harness's single seeding hook.
func SeedReferenceData(_ *pgxpool.Pool) error {
	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables between subtests
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
