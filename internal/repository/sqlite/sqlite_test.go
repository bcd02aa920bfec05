package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

// newTestDB returns a fresh in-memory database that is closed when the test
// finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newFileDB is like newTestDB but backed by a file, so several connections
// can run at once. Used by the concurrency tests.
func newFileDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create file db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Subject:  "github:" + username,
		Email:    username + "@example.com",
		Username: username,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, db *DB, authorID, content string) *model.Post {
	t.Helper()
	post := &model.Post{AuthorID: authorID, Content: &content}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

func createTestComment(t *testing.T, db *DB, authorID, postID, content string) *model.Comment {
	t.Helper()
	c := &model.Comment{AuthorID: authorID, PostID: postID, Content: content}
	if err := db.CreateComment(context.Background(), c); err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

func countRows(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

// =========================================================================
// CONNECTION & TRANSACTION TESTS
// =========================================================================

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.migrate())
	require.NoError(t, db.Ping(context.Background()))
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newFileDB(t)

	var on int
	require.NoError(t, db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)

	content := "orphan"
	err := db.CreatePost(context.Background(), &model.Post{AuthorID: "missing", Content: &content})
	assert.Error(t, err, "a post must reference an existing author")
}

func TestDSN(t *testing.T) {
	assert.NotContains(t, dsn(":memory:"), "journal_mode")
	assert.Contains(t, dsn("data/app.db"), "journal_mode(WAL)")
	assert.Contains(t, dsn("data/app.db"), "_txlock=immediate")
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var id string
	err := db.WithTx(ctx, func(tx repository.Repository) error {
		u := &model.User{Subject: "github:1", Username: "alice"}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	require.NoError(t, err)

	_, err = db.GetUserByID(ctx, id)
	assert.NoError(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateUser(ctx, &model.User{Subject: "github:1", Username: "alice"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.GetUserByUsername(ctx, "alice")
	assert.True(t, apperror.Is(err, apperror.ErrNotFound), "user insert should have been rolled back")
}

func TestWithTx_NestedReusesTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// With a single in-memory connection a second BEGIN would block forever,
	// so this only passes if the nested call reuses the outer transaction.
	err := db.WithTx(ctx, func(tx repository.Repository) error {
		return tx.(*DB).WithTx(ctx, func(inner repository.Repository) error {
			return inner.CreateUser(ctx, &model.User{Subject: "github:1", Username: "alice"})
		})
	})
	require.NoError(t, err)

	_, err = db.GetUserByUsername(ctx, "alice")
	assert.NoError(t, err)
}
