// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed. It registers itself with database/sql as the "sqlite" driver.
//
// CONCURRENCY:
// The toggles (like, follow) are compare-and-set operations: a conditional
// DELETE followed, when nothing was deleted, by an INSERT that is a no-op on
// an existing primary key. Both run inside one transaction. Connections are
// opened with _txlock=immediate, so every transaction takes the write lock
// at BEGIN and two toggles on the same pair can never interleave their
// read and write halves. busy_timeout makes the second writer wait instead
// of failing with SQLITE_BUSY.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// querier is the subset of *sql.DB and *sql.Tx the repositories use, so the
// same methods work inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and provides repository methods.
//
// A DB returned by New talks to the pool directly. WithTx hands its callback
// a second DB value whose q is the open *sql.Tx.
type DB struct {
	conn *sql.DB
	q    querier
	inTx bool
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/postagram.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests); limited to a single
//     connection because every new connection would see an empty database
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, q: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the per-connection settings. PRAGMAs passed through the DSN
// are applied by the driver to every connection in the pool, not only the
// first one.
func dsn(dbPath string) string {
	params := "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	if dbPath != ":memory:" {
		params += "&_pragma=journal_mode(WAL)"
	}
	return dbPath + params
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Calling WithTx on a DB that is
// already bound to a transaction reuses it.
func (db *DB) WithTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	return db.withTx(ctx, func(tx *DB) error { return fn(tx) })
}

// withTx is WithTx for callers inside this package that need the concrete
// *DB, e.g. DeletePost running several statements atomically.
func (db *DB) withTx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(&DB{conn: db.conn, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("sqlite: rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// Derived counts (likes, comments, followers, following, posts) have no
// column anywhere; they are COUNT(*) over the relation tables at read time.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			subject    TEXT NOT NULL UNIQUE,
			email      TEXT NOT NULL DEFAULT '',
			username   TEXT NOT NULL UNIQUE,
			name       TEXT,
			bio        TEXT,
			location   TEXT,
			website    TEXT,
			image      TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content    TEXT,
			image      TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CHECK (content IS NOT NULL OR image IS NOT NULL)
		);
		CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
		CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			content    TEXT NOT NULL CHECK (length(trim(content)) > 0),
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	// Composite primary keys keep each toggle edge unique.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, post_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id);

		CREATE TABLE IF NOT EXISTS follows (
			follower_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			following_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at   DATETIME NOT NULL,
			PRIMARY KEY (follower_id, following_id),
			CHECK (follower_id <> following_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);
	`)
	if err != nil {
		return fmt.Errorf("creating likes/follows tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			creator_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type       TEXT NOT NULL CHECK (type IN ('LIKE', 'COMMENT', 'FOLLOW')),
			post_id    TEXT REFERENCES posts(id) ON DELETE CASCADE,
			comment_id TEXT REFERENCES comments(id) ON DELETE CASCADE,
			read       INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			CHECK (user_id <> creator_id)
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating notifications table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate
// primary key or UNIQUE column.
func isUniqueViolation(err error) bool {
	var se *sqlitedriver.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// rowsChanged returns RowsAffected, wrapping the (rare) driver error.
func rowsChanged(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

// notFoundOr translates sql.ErrNoRows into the domain NotFound error.
func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("sqlite: getting %s %s: %w", resource, id, err)
}

// nullString converts a scanned NULL-able column into an optional field.
func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullable converts an optional field into a bind argument (nil → NULL).
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
