package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreatePost inserts a new post, generating its ID and timestamps.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.AuthorID,
		nullable(post.Content),
		nullable(post.Image),
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a single post. Returns apperror.ErrNotFound if it
// does not exist.
func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var (
		p              model.Post
		content, image sql.NullString
	)
	err := db.q.QueryRowContext(ctx,
		`SELECT id, author_id, content, image, created_at, updated_at
		 FROM posts
		 WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.AuthorID, &content, &image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "post", id)
	}
	p.Content = nullString(content)
	p.Image = nullString(image)
	return &p, nil
}

// DeletePost removes a post and everything hanging off it.
//
// The foreign keys cascade too, but the deletes are spelled out so the order
// is explicit: notifications first (they reference both the post and its
// comments), then likes, then comments, then the post itself. All of it runs
// in one transaction; a missing post leaves the database untouched.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *DB) error {
		_, err := tx.q.ExecContext(ctx,
			`DELETE FROM notifications
			 WHERE post_id = ?
			    OR comment_id IN (SELECT id FROM comments WHERE post_id = ?)`,
			id, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: deleting notifications of post %s: %w", id, err)
		}

		if _, err := tx.q.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting likes of post %s: %w", id, err)
		}
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting comments of post %s: %w", id, err)
		}

		res, err := tx.q.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
		}
		n, err := rowsChanged(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NotFound("post", id)
		}
		return nil
	})
}

// ListPosts returns posts newest first with author, comments (oldest first),
// like and comment counts, and whether q.ViewerID has liked each one.
//
// Counts are correlated subqueries over the relation tables, so they are
// always consistent with the rows that exist at read time.
func (db *DB) ListPosts(ctx context.Context, q repository.PostQuery) ([]model.FeedPost, error) {
	limit, offset := page(q.ListOptions)

	rows, err := db.q.QueryContext(ctx,
		`SELECT p.id, p.author_id, p.content, p.image, p.created_at, p.updated_at,
		        u.id, u.username, u.name, u.image,
		        (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		        (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		        EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?)
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE (? = '' OR p.author_id = ?)
		   AND (? = '' OR p.id IN (SELECT post_id FROM likes WHERE user_id = ?))
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ? OFFSET ?`,
		q.ViewerID,
		q.AuthorID, q.AuthorID,
		q.LikedBy, q.LikedBy,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.FeedPost, 0, limit)
	index := make(map[string]int, limit)
	for rows.Next() {
		var (
			fp                    model.FeedPost
			content, image        sql.NullString
			authorName, authorImg sql.NullString
		)
		if err := rows.Scan(
			&fp.ID, &fp.AuthorID, &content, &image, &fp.CreatedAt, &fp.UpdatedAt,
			&fp.Author.ID, &fp.Author.Username, &authorName, &authorImg,
			&fp.Counts.Likes, &fp.Counts.Comments, &fp.Liked,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		fp.Content = nullString(content)
		fp.Image = nullString(image)
		fp.Author.Name = nullString(authorName)
		fp.Author.Image = nullString(authorImg)
		fp.Comments = []model.CommentView{}

		index[fp.ID] = len(posts)
		posts = append(posts, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	rows.Close()

	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	comments, err := db.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, c)
	}

	return posts, nil
}

// page applies the default and maximum page size.
func page(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// inClause returns "?, ?, ?" for n values and the values as bind args.
func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}
