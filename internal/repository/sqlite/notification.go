package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

var _ repository.NotificationRepository = (*DB)(nil)

// CreateNotification stores an unread notification.
func (db *DB) CreateNotification(ctx context.Context, n *model.Notification) error {
	if !n.Kind.Valid() {
		return apperror.ValidationFailed("type", fmt.Sprintf("unknown notification type %q", n.Kind))
	}
	n.ID = xid.New().String()
	n.Read = false
	n.CreatedAt = time.Now().UTC()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, creator_id, type, post_id, comment_id, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		n.ID,
		n.RecipientID,
		n.ActorID,
		string(n.Kind),
		nullable(n.PostID),
		nullable(n.CommentID),
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating %s notification for %s: %w", n.Kind, n.RecipientID, err)
	}
	return nil
}

// ListNotifications returns every notification addressed to userID, newest
// first, with the actor and the referenced post and comment resolved.
func (db *DB) ListNotifications(ctx context.Context, userID string) ([]model.NotificationView, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT n.id, n.user_id, n.creator_id, n.type, n.post_id, n.comment_id, n.read, n.created_at,
		        u.id, u.username, u.name, u.image,
		        p.id, p.content, p.image,
		        c.id, c.content, c.created_at
		 FROM notifications n
		 JOIN users u ON u.id = n.creator_id
		 LEFT JOIN posts p ON p.id = n.post_id
		 LEFT JOIN comments c ON c.id = n.comment_id
		 WHERE n.user_id = ?
		 ORDER BY n.created_at DESC, n.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	views := []model.NotificationView{}
	for rows.Next() {
		var (
			v                         model.NotificationView
			kind                      string
			postRef, commentRef       sql.NullString
			actorName, actorImage     sql.NullString
			postID, postBody, postImg sql.NullString
			commentID, commentBody    sql.NullString
			commentAt                 sql.NullTime
		)
		if err := rows.Scan(
			&v.ID, &v.RecipientID, &v.ActorID, &kind, &postRef, &commentRef, &v.Read, &v.CreatedAt,
			&v.Actor.ID, &v.Actor.Username, &actorName, &actorImage,
			&postID, &postBody, &postImg,
			&commentID, &commentBody, &commentAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification row: %w", err)
		}

		v.Kind = model.NotificationKind(kind)
		v.PostID = nullString(postRef)
		v.CommentID = nullString(commentRef)
		v.Actor.Name = nullString(actorName)
		v.Actor.Image = nullString(actorImage)
		if postID.Valid {
			v.Post = &model.PostPreview{
				ID:      postID.String,
				Content: nullString(postBody),
				Image:   nullString(postImg),
			}
		}
		if commentID.Valid {
			v.Comment = &model.CommentPreview{
				ID:        commentID.String,
				Content:   commentBody.String,
				CreatedAt: commentAt.Time,
			}
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notifications: %w", err)
	}
	return views, nil
}

// MarkRead flags the listed notifications as read. Only rows owned by userID
// are touched, so foreign ids are silently skipped. The count covers only
// notifications that were unread before the call.
func (db *DB) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	in, args := inClause(ids)
	res, err := db.q.ExecContext(ctx,
		`UPDATE notifications SET read = 1
		 WHERE user_id = ? AND read = 0 AND id IN (`+in+`)`,
		append([]any{userID}, args...)...,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: marking notifications read for %s: %w", userID, err)
	}
	n, err := rowsChanged(res)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountUnread returns how many of the user's notifications are still unread.
func (db *DB) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting unread notifications for %s: %w", userID, err)
	}
	return n, nil
}
