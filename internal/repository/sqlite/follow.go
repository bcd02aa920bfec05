package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// DeleteFollow removes the follower → following edge and reports whether it
// existed.
func (db *DB) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res, err := db.q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting follow (%s, %s): %w", followerID, followingID, err)
	}
	n, err := rowsChanged(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertFollow adds the edge, returning apperror.ErrConflict when it is
// already there. The table's CHECK rejects self-follows; the service refuses
// them earlier with a validation error.
func (db *DB) InsertFollow(ctx context.Context, followerID, followingID string) error {
	res, err := db.q.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting follow (%s, %s): %w", followerID, followingID, err)
	}
	n, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.Conflict("follow", followingID)
	}
	return nil
}

// IsFollowing reports whether followerID currently follows followingID.
func (db *DB) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := db.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?)`,
		followerID, followingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow (%s, %s): %w", followerID, followingID, err)
	}
	return exists, nil
}
