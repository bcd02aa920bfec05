package model

import "time"

// NotificationKind is the engagement that produced a notification.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "LIKE"
	NotificationComment NotificationKind = "COMMENT"
	NotificationFollow  NotificationKind = "FOLLOW"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	}
	return false
}

// Notification is created as a side effect of a like, comment or follow.
//
// Reference chain by kind:
//
//	LIKE    → PostID set, CommentID nil
//	COMMENT → PostID and CommentID set (the comment's parent post)
//	FOLLOW  → both nil
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"userId"`
	ActorID     string           `json:"creatorId"`
	Kind        NotificationKind `json:"type"`
	PostID      *string          `json:"postId"`
	CommentID   *string          `json:"commentId"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NewLikeNotification builds the notification for a fresh like.
func NewLikeNotification(recipientID, actorID, postID string) *Notification {
	return &Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        NotificationLike,
		PostID:      &postID,
	}
}

// NewCommentNotification builds the notification for a new comment.
func NewCommentNotification(recipientID, actorID, postID, commentID string) *Notification {
	return &Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        NotificationComment,
		PostID:      &postID,
		CommentID:   &commentID,
	}
}

// NewFollowNotification builds the notification for a new follow edge.
func NewFollowNotification(recipientID, actorID string) *Notification {
	return &Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        NotificationFollow,
	}
}

// PostPreview is the part of a post shown inside a notification.
type PostPreview struct {
	ID      string  `json:"id"`
	Content *string `json:"content"`
	Image   *string `json:"image"`
}

// CommentPreview is the part of a comment shown inside a notification.
type CommentPreview struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationView is a notification with its actor and previews resolved.
type NotificationView struct {
	Notification
	Actor   UserSummary     `json:"creator"`
	Post    *PostPreview    `json:"post"`
	Comment *CommentPreview `json:"comment"`
}
