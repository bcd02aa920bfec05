package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// DeleteLike removes the (user, post) edge and reports whether it existed.
func (db *DB) DeleteLike(ctx context.Context, userID, postID string) (bool, error) {
	res, err := db.q.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND post_id = ?`,
		userID, postID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting like (%s, %s): %w", userID, postID, err)
	}
	n, err := rowsChanged(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertLike adds the (user, post) edge. If the edge is already there the
// insert is a no-op and apperror.ErrConflict is returned.
func (db *DB) InsertLike(ctx context.Context, userID, postID string) error {
	res, err := db.q.ExecContext(ctx,
		`INSERT INTO likes (user_id, post_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting like (%s, %s): %w", userID, postID, err)
	}
	n, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.Conflict("like", postID)
	}
	return nil
}

// CountLikes counts the likes on a post.
func (db *DB) CountLikes(ctx context.Context, postID string) (int, error) {
	var n int
	err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes of post %s: %w", postID, err)
	}
	return n, nil
}
