package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB is the shared SQLite handle used by every repository in this package.
type DB struct {
	db        *sql.DB
	log       zerolog.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

// Open connects to the database at path, enables foreign keys and creates the
// schema if needed. Parent directories of a file path are created.
func Open(ctx context.Context, path string, log zerolog.Logger) (*DB, error) {
	memory := path == MemoryPath
	if !memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("register sql functions: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.Info().Str("path", path).Msg("sqlite storage ready")

	return &DB{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs the driver-wide SQL functions once per process.
// casefold lowercases Unicode text; SQLite's LOWER only folds ASCII.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("casefold", 1, casefold)
	})
	return registerErr
}

func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	full_name     TEXT    NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT    NOT NULL UNIQUE,
	description TEXT,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT    NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT    NOT NULL,
	description TEXT,
	price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
	stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	brand       TEXT,
	size        TEXT,
	color       TEXT,
	sku         TEXT    UNIQUE,
	slug        TEXT    NOT NULL UNIQUE,
	category_id INTEGER REFERENCES categories (id) ON DELETE SET NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id);

CREATE TABLE IF NOT EXISTS product_tags (
	product_id INTEGER NOT NULL REFERENCES products (id) ON DELETE CASCADE,
	tag_id     INTEGER NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
	PRIMARY KEY (product_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_product_tags_tag ON product_tags (tag_id);
`

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction under the write lock.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	d.writeLock.Lock()
	defer d.writeLock.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// exec runs a single write statement under the write lock.
func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	d.writeLock.Lock()
	defer d.writeLock.Unlock()

	return d.db.ExecContext(ctx, query, args...)
}

// uniqueViolations maps "table.column" of a UNIQUE constraint to its domain error.
var uniqueViolations = map[string]error{
	"users.email":     domain.ErrEmailTaken,
	"categories.name": domain.ErrCategoryExists,
	"tags.name":       domain.ErrTagExists,
	"products.sku":    domain.ErrSKUTaken,
	"products.slug":   domain.ErrSlugTaken,
}

// mapConstraint translates SQLite constraint failures into domain errors.
// Other errors are returned unchanged.
func mapConstraint(err error) error {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return err
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		msg := liteErr.Error()
		for column, domainErr := range uniqueViolations {
			if strings.Contains(msg, column) {
				return errors.Join(domainErr, err)
			}
		}
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return errors.Join(domain.NewValidationError("referenced record does not exist"), err)
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return errors.Join(domain.NewValidationError("price and stock must be non-negative"), err)
	}
	return err
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
