// Package testutil provides shared test helpers for databases, clocks and
// inbox directories.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lending/internal/inbox"
	"github.com/starford/lending/internal/store"
)

// PostgresDSNEnv names the variable that enables PostgreSQL-backed tests.
const PostgresDSNEnv = "LENDING_TEST_POSTGRES_DSN"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "lending-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(context.Background(), store.Config{Driver: store.DriverSQLite, DSN: dbFile.Name()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// PostgresDB opens a store in a throwaway schema of the database named by
// LENDING_TEST_POSTGRES_DSN, skipping the test when the variable is unset.
func PostgresDB(t *testing.T) *store.DB {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	schema := "lending_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { admin.Close() })
	if _, err := admin.Exec(`CREATE SCHEMA ` + schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { _, _ = admin.Exec(`DROP SCHEMA ` + schema + ` CASCADE`) })

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverPostgres,
		DSN:    dsn + sep + "search_path=" + schema,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ForEachEngine runs fn against SQLite and, when configured, PostgreSQL.
func ForEachEngine(t *testing.T, fn func(t *testing.T, db *store.DB)) {
	t.Helper()
	t.Run(store.DriverSQLite, func(t *testing.T) { fn(t, TestDB(t)) })
	t.Run(store.DriverPostgres, func(t *testing.T) { fn(t, PostgresDB(t)) })
}

// Clock is a settable time source safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC().Truncate(time.Microsecond)}
}

// Now returns the current fake instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestInbox creates a temporary inbox directory with its provider.
func TestInbox(t *testing.T) (string, *inbox.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := inbox.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}
