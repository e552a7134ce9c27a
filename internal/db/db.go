// Package db opens the SQL databases backing the service and keeps their
// schema current. SQLite and PostgreSQL are supported.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// Dialect names a supported SQL engine.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB is a database handle that knows its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DefaultPath returns the default SQLite path: ~/.realty/realty.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".realty", "realty.db"), nil
}

// Open opens (or creates) a SQLite database at the given path,
// enables WAL mode and foreign keys, and runs migrations.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{DB: sqlDB, Dialect: SQLite}
	if err := configure(db); err != nil {
		return nil, closeWith(db, err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		return nil, closeWith(db, fmt.Errorf("running migrations: %w", err))
	}

	return db, nil
}

// PostgresOptions configures the PostgreSQL connection pool.
type PostgresOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// OpenPostgres connects through the pgx driver, verifies the connection
// and runs migrations.
func OpenPostgres(ctx context.Context, opt PostgresOptions) (*DB, error) {
	if opt.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is not set")
	}
	if opt.MaxOpenConns == 0 {
		opt.MaxOpenConns = 10
	}
	if opt.MaxIdleConns == 0 {
		opt.MaxIdleConns = 2
	}
	if opt.ConnMaxIdleTime == 0 {
		opt.ConnMaxIdleTime = 5 * time.Minute
	}
	if opt.PingTimeout == 0 {
		opt.PingTimeout = 3 * time.Second
	}

	sqlDB, err := sql.Open("pgx", opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(opt.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opt.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(opt.ConnMaxIdleTime)

	db := &DB{DB: sqlDB, Dialect: Postgres}

	pctx, cancel := context.WithTimeout(ctx, opt.PingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		return nil, closeWith(db, fmt.Errorf("db ping: %w", err))
	}

	if err := Migrate(ctx, db); err != nil {
		return nil, closeWith(db, fmt.Errorf("running migrations: %w", err))
	}

	return db, nil
}

// closeWith closes db after a failed open and folds any close error into err.
func closeWith(db *DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}

// configure sets SQLite pragmas for WAL mode and foreign keys.
func configure(db *DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
	}

	return nil
}

// Rebind rewrites ? placeholders into the dialect's form. Queries are
// written with ? throughout and never contain a literal question mark.
func (db *DB) Rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// InsertID runs an INSERT and returns the generated id column.
func (db *DB) InsertID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if db.Dialect == Postgres {
		var id int64
		if err := db.QueryRowContext(ctx, db.Rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}
	return id, nil
}

// ExecAffected runs a statement and returns the number of rows it touched.
func (db *DB) ExecAffected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// IsUniqueViolation reports whether err is a unique constraint failure from
// either driver.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}
