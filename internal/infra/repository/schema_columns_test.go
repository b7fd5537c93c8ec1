//go:build unit

package repository_test

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"library-api/internal/infra/db"
	"library-api/internal/infra/repository"
	"library-api/tests/common/builder"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// recordingDB captures every statement a repository builds so the
// referenced columns can be checked against the shipped schema.
// Postgres rejects a statement naming an unknown column outright
// (42703), even when no row would match, so a stray column in a SET
// clause breaks the whole write path.
type recordingDB struct {
	statements []string
}

func (r *recordingDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	r.statements = append(r.statements, sql)
	return nil, errors.New("not executed")
}

func (r *recordingDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	r.statements = append(r.statements, sql)
	return noRow{}
}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

var (
	createTableRe = regexp.MustCompile(`^CREATE TABLE (\w+) \($`)
	columnNameRe  = regexp.MustCompile(`^[a-z_]+$`)
	quotedIdentRe = regexp.MustCompile(`"([a-z_]+)"`)
)

// loadSchemaColumns parses the migration DDL into table → column set.
func loadSchemaColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	candidates := []string{
		"migrations/001_initial_schema.sql",
		"../migrations/001_initial_schema.sql",
		"../../migrations/001_initial_schema.sql",
		"../../../migrations/001_initial_schema.sql",
	}
	var ddl []byte
	for _, path := range candidates {
		if content, err := os.ReadFile(path); err == nil {
			ddl = content
			break
		}
	}
	require.NotNil(t, ddl, "migration file not found")

	tables := map[string]map[string]bool{}
	var current map[string]bool
	for _, line := range strings.Split(string(ddl), "\n") {
		trimmed := strings.TrimSpace(line)
		if m := createTableRe.FindStringSubmatch(trimmed); m != nil {
			current = map[string]bool{}
			tables[m[1]] = current
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(trimmed, ");") {
			current = nil
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		if columnNameRe.MatchString(fields[0]) {
			current[fields[0]] = true
		}
	}
	return tables
}

// 各リポジトリが生成するSQLの列名がスキーマに実在することを検証する
func TestWriteStatementsReferenceOnlySchemaColumns(t *testing.T) {
	tables := loadSchemaColumns(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fine := int64(300)

	borrows := repository.NewBorrowRepository()
	reservations := repository.NewReservationRepository()
	books := repository.NewBookRepository()
	users := repository.NewUserRepository()
	events := repository.NewLendingEventRepository()

	cases := []struct {
		name  string
		table string
		run   func(tx db.DBTX)
	}{
		{"insert borrow", "borrows", func(tx db.DBTX) {
			_, _ = borrows.Create(ctx, tx, builder.NewBorrowBuilder().BuildDomain())
		}},
		{"save renewal", "borrows", func(tx db.DBTX) {
			require.NoError(t, borrows.SaveRenewal(ctx, tx, uuid.New(), now, 1))
		}},
		{"save return", "borrows", func(tx db.DBTX) {
			require.NoError(t, borrows.SaveReturn(ctx, tx, uuid.New(), now, &fine))
		}},
		{"insert reservation", "reservations", func(tx db.DBTX) {
			_, _ = reservations.Create(ctx, tx, builder.NewReservationBuilder().BuildDomain())
		}},
		{"deactivate reservation", "reservations", func(tx db.DBTX) {
			require.NoError(t, reservations.Deactivate(ctx, tx, uuid.New()))
		}},
		{"consume reservation on checkout", "reservations", func(tx db.DBTX) {
			require.NoError(t, reservations.DeactivateForUserAndBook(ctx, tx, uuid.New(), uuid.New()))
		}},
		{"expiry sweep", "reservations", func(tx db.DBTX) {
			_, err := reservations.DeactivateExpired(ctx, tx, now)
			require.NoError(t, err)
		}},
		{"update book metadata", "books", func(tx db.DBTX) {
			require.NoError(t, books.UpdateMetadata(ctx, tx, uuid.New(), "title", "author"))
		}},
		{"update last login", "users", func(tx db.DBTX) {
			require.NoError(t, users.UpdateLastLogin(ctx, tx, uuid.New()))
		}},
		{"append lending event", "lending_events", func(tx db.DBTX) {
			require.NoError(t, events.Append(ctx, tx, "checkout", uuid.New(), uuid.New(), []byte(`{}`), now))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingDB{}
			tc.run(rec)
			require.NotEmpty(t, rec.statements)

			columns := tables[tc.table]
			require.NotEmpty(t, columns, "table %s not found in schema", tc.table)

			for _, stmt := range rec.statements {
				for _, m := range quotedIdentRe.FindAllStringSubmatch(stmt, -1) {
					ident := m[1]
					if ident == tc.table {
						continue
					}
					require.True(t, columns[ident],
						"statement %q references %s.%s which does not exist in the schema", stmt, tc.table, ident)
				}
			}
		})
	}
}
