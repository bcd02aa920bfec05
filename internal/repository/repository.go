// Package repository declares the persistence interfaces the service layer
// depends on. The sqlite subpackage implements them.
package repository

import (
	"context"

	"github.com/sakif/postagram/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// PostQuery selects posts for a feed or a profile tab. Zero-value filters
// are ignored; ViewerID only affects FeedPost.Liked.
type PostQuery struct {
	AuthorID string // posts written by this user
	LikedBy  string // posts liked by this user
	ViewerID string
	ListOptions
}

type UserRepository interface {
	// CreateUser inserts a new user. A duplicate subject or username
	// returns apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserBySubject(ctx context.Context, subject string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
	CountProfile(ctx context.Context, userID string) (model.ProfileCounts, error)
	// SuggestUsers returns random users other than userID that userID
	// does not follow yet.
	SuggestUsers(ctx context.Context, userID string, limit int) ([]model.UserSummary, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	// DeletePost removes the post together with its comments, likes and
	// every notification that references the post or one of its comments.
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, q PostQuery) ([]model.FeedPost, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
}

// LikeRepository exposes the two halves of a compare-and-toggle. Both are
// conditional: DeleteLike reports whether a row was removed, InsertLike
// returns apperror.ErrConflict when the row already exists.
type LikeRepository interface {
	DeleteLike(ctx context.Context, userID, postID string) (bool, error)
	InsertLike(ctx context.Context, userID, postID string) error
	CountLikes(ctx context.Context, postID string) (int, error)
}

// FollowRepository mirrors LikeRepository for follow edges.
type FollowRepository interface {
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	InsertFollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	// ListNotifications returns the recipient's notifications, newest first.
	ListNotifications(ctx context.Context, userID string) ([]model.NotificationView, error)
	// MarkRead sets read=true on the given ids owned by userID and returns
	// how many rows changed. Ids owned by someone else are ignored.
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Repository is every entity repository bound to one connection or
// transaction.
type Repository interface {
	UserRepository
	PostRepository
	CommentRepository
	LikeRepository
	FollowRepository
	NotificationRepository
}

// Store is a Repository that can also open a transaction. fn receives a
// Repository bound to the transaction; returning an error rolls it back.
type Store interface {
	Repository
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
