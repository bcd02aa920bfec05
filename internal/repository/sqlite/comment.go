package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a comment on an existing post.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now().UTC()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO comments (id, author_id, post_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.AuthorID,
		comment.PostID,
		comment.Content,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment on post %s: %w", comment.PostID, err)
	}
	return nil
}

// commentsFor loads the comments of the given posts with their authors,
// oldest first.
func (db *DB) commentsFor(ctx context.Context, postIDs []string) ([]model.CommentView, error) {
	in, args := inClause(postIDs)
	rows, err := db.q.QueryContext(ctx,
		`SELECT c.id, c.author_id, c.post_id, c.content, c.created_at,
		        u.id, u.username, u.name, u.image
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id IN (`+in+`)
		 ORDER BY c.created_at ASC, c.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentView
	for rows.Next() {
		var (
			c           model.CommentView
			name, image sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &c.AuthorID, &c.PostID, &c.Content, &c.CreatedAt,
			&c.Author.ID, &c.Author.Username, &name, &image,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		c.Author.Name = nullString(name)
		c.Author.Image = nullString(image)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}
