// Package sqlite implements the repository interfaces on SQLite through the
// pure-Go modernc.org/sqlite driver, so the binary needs no C toolchain.
//
// Every method follows the same conventions:
//   - ids are xids generated here, timestamps are UTC and set here
//   - sql.ErrNoRows and zero-row updates become apperror.NotFound
//   - a UNIQUE violation becomes apperror.AlreadyTaken
//   - anything else is wrapped as "sqlite: <action>: %w"
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/recipe-mate/internal/apperror"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the user, recipe and
// review repositories.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/recipes.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" is a separate, empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := NewWithConn(conn)
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// NewWithConn wraps an already-open pool. The schema is assumed to exist.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			first_name    TEXT NOT NULL,
			middle_name   TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password      TEXT NOT NULL DEFAULT '',
			role          INTEGER NOT NULL DEFAULT 0,
			reset_token   TEXT,
			reset_expires DATETIME,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// created_by carries no foreign key: admin-created recipes may name any owner id.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS recipes (
			id                  TEXT PRIMARY KEY,
			name                TEXT NOT NULL,
			description         TEXT NOT NULL DEFAULT '',
			ingredients         TEXT NOT NULL DEFAULT '[]',
			steps               TEXT NOT NULL DEFAULT '[]',
			type                TEXT NOT NULL,
			course              TEXT NOT NULL,
			preparation_time    REAL NOT NULL,
			cook_time           REAL NOT NULL,
			created_by          TEXT NOT NULL,
			photo_content_type  TEXT NOT NULL DEFAULT '',
			photo_filename      TEXT NOT NULL DEFAULT '',
			photo_asset_id      TEXT NOT NULL DEFAULT '',
			photo_public_id     TEXT NOT NULL DEFAULT '',
			photo_url           TEXT NOT NULL DEFAULT '',
			photo_square_url    TEXT NOT NULL DEFAULT '',
			photo_thumbnail_url TEXT NOT NULL DEFAULT '',
			rating              REAL NOT NULL DEFAULT 0,
			created_at          DATETIME NOT NULL,
			updated_at          DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_recipes_created_by ON recipes(created_by);
		CREATE INDEX IF NOT EXISTS idx_recipes_rating_name ON recipes(rating DESC, name);

		CREATE TABLE IF NOT EXISTS recipe_saves (
			recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			user_id   TEXT NOT NULL,
			PRIMARY KEY (recipe_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_recipe_saves_user ON recipe_saves(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating recipes tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			rating     INTEGER,
			comments   TEXT,
			recipe_id  TEXT NOT NULL,
			author_id  TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_recipe ON reviews(recipe_id);
	`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFoundIfNoRows maps sql.ErrNoRows to a NotFound for resource/id.
func notFoundIfNoRows(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return err
}

// expectOneRow turns a zero-row UPDATE/DELETE into a NotFound.
func expectOneRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
