// Package store is the storage boundary of the circulation ledger: the
// items, borrowers and loans relations on SQLite or PostgreSQL, transaction
// scoped handles and classification of engine errors.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	_ "github.com/jackc/pgx/v5/stdlib"                  // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/starford/lending/internal/apperr"
)

// Supported engines.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqliteParams are appended to every SQLite DSN.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

const (
	defaultRetryAttempts = 3
	retryBackoff         = 20 * time.Millisecond
)

// Config selects and tunes the storage engine.
type Config struct {
	Driver string
	// DSN is a file path for SQLite and a connection URL for PostgreSQL.
	DSN           string
	MaxOpenConns  int
	RetryAttempts int
}

// DB owns the connection pool. All durable state lives behind it.
type DB struct {
	conn          *sqlx.DB
	driver        string
	dialect       goqu.DialectWrapper
	retryAttempts int
	logger        *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// Open connects to the configured engine and applies the schema.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	var (
		driverName string
		dsn        string
		dialect    string
		schema     string
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		driverName, dialect, schema = "sqlite3", "sqlite3", sqliteSchemaSQL
		dsn = withParams(cfg.DSN, sqliteParams)
	case DriverPostgres:
		driverName, dialect, schema = "pgx", "postgres", postgresSchemaSQL
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	db := &DB{
		conn:          conn,
		driver:        cfg.Driver,
		dialect:       goqu.Dialect(dialect),
		retryAttempts: cfg.RetryAttempts,
		logger:        slog.New(slog.DiscardHandler),
	}
	if db.driver == "" {
		db.driver = DriverSQLite
	}
	if db.retryAttempts <= 0 {
		db.retryAttempts = defaultRetryAttempts
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Driver returns the engine name.
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Reader returns a handle for single-statement reads outside a transaction.
// Each statement observes committed state only.
func (db *DB) Reader() *Handle {
	return db.handle(db.conn)
}

// InTx runs fn inside one transaction and commits when fn returns nil.
// Any error rolls the whole transaction back. Transient engine conflicts
// (busy database, serialization failure, deadlock) re-run fn from scratch;
// errors returned by fn itself are never retried unless they are such
// conflicts.
func (db *DB) InTx(ctx context.Context, fn func(h *Handle) error) error {
	for attempt := 1; ; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt >= db.retryAttempts {
			return apperr.Storage(err)
		}
		db.logger.Debug("store: retrying transaction",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return apperr.Storage(ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}

func (db *DB) runTx(ctx context.Context, fn func(h *Handle) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(db.handle(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (db *DB) handle(ext sqlx.ExtContext) *Handle {
	return &Handle{ext: ext, driver: db.driver, dialect: db.dialect}
}

// Handle issues logical operations against either the pool or one open
// transaction. Handles passed to InTx callbacks must not outlive them.
type Handle struct {
	ext     sqlx.ExtContext
	driver  string
	dialect goqu.DialectWrapper
}

func (h *Handle) from(table any) *goqu.SelectDataset {
	return h.dialect.From(table).Prepared(true)
}

func (h *Handle) update(table string) *goqu.UpdateDataset {
	return h.dialect.Update(table).Prepared(true)
}

// insertID runs an INSERT and returns the generated id column.
func (h *Handle) insertID(ctx context.Context, ds *goqu.InsertDataset) (int64, error) {
	ds = ds.Prepared(true)
	if h.driver == DriverPostgres {
		query, args, err := ds.Returning("id").ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		var id int64
		if err := h.ext.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	res, err := h.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// exec runs an UPDATE and returns the number of affected rows.
func (h *Handle) exec(ctx context.Context, ds *goqu.UpdateDataset) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	res, err := h.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (h *Handle) selectAll(ctx context.Context, dest any, ds *goqu.SelectDataset) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}
	return sqlx.SelectContext(ctx, h.ext, dest, query, args...)
}

// getOne scans a single row into dest and reports whether a row existed.
func (h *Handle) getOne(ctx context.Context, dest any, ds *goqu.SelectDataset) (bool, error) {
	query, args, err := ds.Limit(1).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}
	err = sqlx.GetContext(ctx, h.ext, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// substrFunc names the engine's substring-position function, used for
// case-insensitive contains filters over pre-folded columns.
func (h *Handle) substrFunc() string {
	if h.driver == DriverPostgres {
		return "strpos"
	}
	return "instr"
}

// withParams appends query parameters to dsn, which may already carry some.
func withParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
