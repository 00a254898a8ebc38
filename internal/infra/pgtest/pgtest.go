// README: Test helper providing a migrated, empty Postgres database.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"ridebook/internal/infra"
)

const EnvDSN = "RIDEBOOK_TEST_DSN"

// Pool connects to $RIDEBOOK_TEST_DSN, applies migrations and truncates all
// tables. The test is skipped when the variable is unset.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skip(EnvDSN + " not set; skipping DB-backed tests")
	}

	if _, err := infra.Migrate(dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	db, err := infra.NewDB(ctx, dsn, 0)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := db.Exec(ctx, "TRUNCATE TABLE bills, bookings RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}
