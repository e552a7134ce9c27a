package db

import (
	"context"
	"fmt"
	"log/slog"
)

// sqliteMigrations is an ordered list of idempotent statements.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		title                TEXT    NOT NULL,
		slug                 TEXT    NOT NULL DEFAULT '',
		location             TEXT    NOT NULL,
		address              TEXT    NOT NULL DEFAULT '',
		description          TEXT    NOT NULL DEFAULT '',
		type                 TEXT    NOT NULL,
		status               TEXT    NOT NULL DEFAULT 'listed',
		area                 REAL    NOT NULL CHECK (area > 0),
		price                REAL    NOT NULL CHECK (price > 0),
		investment_potential TEXT    NOT NULL DEFAULT '',
		features             TEXT    NOT NULL DEFAULT '[]',
		images               TEXT    NOT NULL DEFAULT '[]',
		zoning               TEXT    NOT NULL DEFAULT '',
		is_featured          BOOLEAN NOT NULL DEFAULT 0,
		view_count           INTEGER NOT NULL DEFAULT 0,
		created_at           DATETIME NOT NULL,
		updated_at           DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT    NOT NULL,
		email      TEXT    NOT NULL DEFAULT '',
		phone      TEXT    NOT NULL,
		type       TEXT    NOT NULL,
		status     TEXT    NOT NULL DEFAULT 'active',
		interests  TEXT    NOT NULL DEFAULT '[]',
		budget_min REAL,
		budget_max REAL,
		notes      TEXT    NOT NULL DEFAULT '',
		source     TEXT    NOT NULL DEFAULT 'website',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contact_submissions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		email       TEXT    NOT NULL DEFAULT '',
		phone       TEXT    NOT NULL DEFAULT '',
		subject     TEXT    NOT NULL,
		message     TEXT    NOT NULL,
		property_id INTEGER,
		status      TEXT    NOT NULL DEFAULT 'new',
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		title        TEXT    NOT NULL,
		slug         TEXT    NOT NULL UNIQUE,
		summary      TEXT    NOT NULL DEFAULT '',
		content      TEXT    NOT NULL,
		category     TEXT    NOT NULL,
		tags         TEXT    NOT NULL DEFAULT '[]',
		is_published BOOLEAN NOT NULL DEFAULT 0,
		view_count   INTEGER NOT NULL DEFAULT 0,
		published_at DATETIME,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_slug ON properties(slug) WHERE slug <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone)`,
	`CREATE INDEX IF NOT EXISTS idx_contact_status ON contact_submissions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_blog_posts_published ON blog_posts(is_published, published_at)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id                   BIGSERIAL PRIMARY KEY,
		title                VARCHAR(255) NOT NULL,
		slug                 VARCHAR(255) NOT NULL DEFAULT '',
		location             VARCHAR(255) NOT NULL,
		address              TEXT NOT NULL DEFAULT '',
		description          TEXT NOT NULL DEFAULT '',
		type                 VARCHAR(32) NOT NULL,
		status               VARCHAR(32) NOT NULL DEFAULT 'listed',
		area                 DOUBLE PRECISION NOT NULL CHECK (area > 0),
		price                DOUBLE PRECISION NOT NULL CHECK (price > 0),
		investment_potential VARCHAR(32) NOT NULL DEFAULT '',
		features             TEXT NOT NULL DEFAULT '[]',
		images               TEXT NOT NULL DEFAULT '[]',
		zoning               VARCHAR(255) NOT NULL DEFAULT '',
		is_featured          BOOLEAN NOT NULL DEFAULT false,
		view_count           BIGINT NOT NULL DEFAULT 0,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id         BIGSERIAL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL DEFAULT '',
		phone      VARCHAR(50) NOT NULL,
		type       VARCHAR(32) NOT NULL,
		status     VARCHAR(32) NOT NULL DEFAULT 'active',
		interests  TEXT NOT NULL DEFAULT '[]',
		budget_min DOUBLE PRECISION,
		budget_max DOUBLE PRECISION,
		notes      TEXT NOT NULL DEFAULT '',
		source     VARCHAR(100) NOT NULL DEFAULT 'website',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contact_submissions (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		email       VARCHAR(255) NOT NULL DEFAULT '',
		phone       VARCHAR(50) NOT NULL DEFAULT '',
		subject     VARCHAR(32) NOT NULL,
		message     TEXT NOT NULL,
		property_id BIGINT,
		status      VARCHAR(32) NOT NULL DEFAULT 'new',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id           BIGSERIAL PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		slug         VARCHAR(255) NOT NULL UNIQUE,
		summary      TEXT NOT NULL DEFAULT '',
		content      TEXT NOT NULL,
		category     VARCHAR(100) NOT NULL,
		tags         TEXT NOT NULL DEFAULT '[]',
		is_published BOOLEAN NOT NULL DEFAULT false,
		view_count   BIGINT NOT NULL DEFAULT 0,
		published_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_slug ON properties(slug) WHERE slug <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone)`,
	`CREATE INDEX IF NOT EXISTS idx_contact_status ON contact_submissions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_blog_posts_published ON blog_posts(is_published, published_at)`,
}

// columnMigrations are columns added after the first schema release.
var columnMigrations = []struct {
	table, column, sqlite, postgres string
}{
	{"properties", "contact_person", "TEXT NOT NULL DEFAULT ''", "VARCHAR(255) NOT NULL DEFAULT ''"},
	{"properties", "contact_phone", "TEXT NOT NULL DEFAULT ''", "VARCHAR(50) NOT NULL DEFAULT ''"},
}

// Migrate runs all migrations for the handle's dialect in order.
func Migrate(ctx context.Context, db *DB) error {
	statements := sqliteMigrations
	if db.Dialect == Postgres {
		statements = postgresMigrations
	}

	for i, m := range statements {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	for _, cm := range columnMigrations {
		var err error
		if db.Dialect == Postgres {
			_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", cm.table, cm.column, cm.postgres))
		} else {
			err = addColumnIfNotExists(ctx, db, cm.table, cm.column, cm.sqlite)
		}
		if err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a SQLite table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *DB, table, column, definition string) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
