package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const (
	tableUsers        = "users"
	tableBooks        = "books"
	tableBorrows      = "borrows"
	tableReservations = "reservations"
)

var dialect = goqu.Dialect("sqlite3")

// driverName is go-sqlite3 with a fold(text) function that lower-cases the
// full Unicode range. SQLite's own lower() only folds ASCII.
const driverName = "sqlite3_library"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// sqlBuilder is satisfied by every goqu dataset.
type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

// Database is the entity store: four independent collections keyed by
// generated UUID strings. It knows nothing about lending rules.
type Database struct {
	db  *sqlx.DB
	now func() time.Time
}

type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	busyTimeout time.Duration
	now         func() time.Time
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) DatabaseOption {
	return func(o *databaseOptions) { o.busyTimeout = d }
}

// WithClock overrides the time source used for created_at/updated_at stamps.
func WithClock(now func() time.Time) DatabaseOption {
	return func(o *databaseOptions) { o.now = now }
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{
		busyTimeout: 5 * time.Second,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", dbPath, o.busyTimeout.Milliseconds())
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := applyMigrations(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db, now: o.now}, nil
}

// Close closes the DB.
func (d *Database) Close() error {
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// No foreign keys: references between collections are not enforced.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'student',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL DEFAULT '',
            year INTEGER NOT NULL DEFAULT 0,
            description TEXT NOT NULL DEFAULT '',
            isbn TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'available',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS borrows (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            book_id TEXT NOT NULL,
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME,
            status TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            book_id TEXT NOT NULL,
            reservation_date DATETIME NOT NULL,
            expiry_date DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrows_book_status ON borrows(book_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_borrows_user ON borrows(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_book_status ON reservations(book_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Query helpers
// ---------------------------------------------------------------------------

func newID() string { return uuid.NewString() }

// validID reports whether id could have been produced by newID. Lookups with
// anything else are answered with NotFound without touching the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (d *Database) get(ctx context.Context, dest any, b sqlBuilder) (bool, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := d.db.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Database) list(ctx context.Context, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return d.db.SelectContext(ctx, dest, query, args...)
}

// exec runs a write and returns the number of affected rows.
func (d *Database) exec(ctx context.Context, b sqlBuilder) (int64, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *Database) count(ctx context.Context, table string, where ...goqu.Expression) (int, error) {
	var n int
	_, err := d.get(ctx, &n, dialect.From(table).Select(goqu.COUNT("*")).Where(where...).Prepared(true))
	return n, err
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
