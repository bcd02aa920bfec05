package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/metrics"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

// EngagementService implements posts, comments, likes, follows and the
// notifications they produce.
//
// Every write runs in a single store transaction. The toggles never lock in
// process: the store serializes writers, and the composite keys plus the
// conditional delete/insert keep each (user, post) and (follower, target)
// pair at zero or one row no matter how many instances are running.
type EngagementService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewEngagementService(store repository.Store, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		store:  store,
		logger: logger,
	}
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// FollowResult is the state after a follow toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

// =========================================================================
// POSTS
// =========================================================================

// CreatePost validates and stores a post. A post needs non-blank content, an
// image reference, or both. Followers are not notified; feeds are pulled.
func (s *EngagementService) CreatePost(ctx context.Context, authorID, content, image string) (*model.FeedPost, error) {
	content = strings.TrimSpace(content)
	image = strings.TrimSpace(image)

	if content == "" && image == "" {
		return nil, apperror.ValidationFailed("content", "post must have content or an image")
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post must be %d characters or less", MaxPostLength))
	}

	post := &model.Post{AuthorID: authorID}
	if content != "" {
		post.Content = &content
	}
	if image != "" {
		post.Image = &image
	}

	var author *model.User
	err := s.store.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		if author, err = tx.GetUserByID(ctx, authorID); err != nil {
			return err
		}
		return tx.CreatePost(ctx, post)
	})
	if err != nil {
		return nil, fail(s.logger, "create post", err, slog.String("authorID", authorID))
	}

	metrics.ContentCreated.WithLabelValues("post").Inc()
	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("authorID", authorID),
	)

	return &model.FeedPost{
		Post:     *post,
		Author:   author.Summary(),
		Comments: []model.CommentView{},
	}, nil
}

// DeletePost removes a post owned by requesterID together with its
// comments, likes and every notification pointing at them.
func (s *EngagementService) DeletePost(ctx context.Context, requesterID, postID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Repository) error {
		post, err := tx.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != requesterID {
			return apperror.Forbidden("only the author can delete this post")
		}
		return tx.DeletePost(ctx, postID)
	})
	if err != nil {
		return fail(s.logger, "delete post", err, slog.String("postID", postID))
	}

	s.logger.Info("post deleted",
		slog.String("id", postID),
		slog.String("by", requesterID),
	)
	return nil
}

// =========================================================================
// LIKES
// =========================================================================

// ToggleLike flips the (userID, postID) like and returns the new state with
// the post's like count as seen inside the same transaction.
//
// A fresh like on someone else's post notifies the author. Unliking leaves
// that notification in place.
func (s *EngagementService) ToggleLike(ctx context.Context, userID, postID string) (LikeResult, error) {
	var (
		res    LikeResult
		raced  bool
		notify *model.Notification
	)

	err := s.store.WithTx(ctx, func(tx repository.Repository) error {
		res, raced, notify = LikeResult{}, false, nil

		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return err
		}
		post, err := tx.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}

		removed, err := tx.DeleteLike(ctx, userID, postID)
		if err != nil {
			return err
		}

		if !removed {
			res.Liked = true
			switch err := tx.InsertLike(ctx, userID, postID); {
			case apperror.Is(err, apperror.ErrConflict):
				// Someone else's insert won; the edge is present either way.
				raced = true
			case err != nil:
				return err
			case userID != post.AuthorID:
				notify = model.NewLikeNotification(post.AuthorID, userID, postID)
				if err := tx.CreateNotification(ctx, notify); err != nil {
					return err
				}
			}
		}

		res.Count, err = tx.CountLikes(ctx, postID)
		return err
	})
	if err != nil {
		return LikeResult{}, fail(s.logger, "toggle like", err,
			slog.String("userID", userID),
			slog.String("postID", postID),
		)
	}

	metrics.RecordToggle("like", res.Liked)
	if raced {
		metrics.ToggleRaces.WithLabelValues("like").Inc()
	}
	if notify != nil {
		metrics.NotificationsCreated.WithLabelValues(string(notify.Kind)).Inc()
	}
	s.logger.Info("like toggled",
		slog.String("userID", userID),
		slog.String("postID", postID),
		slog.Bool("liked", res.Liked),
		slog.Int("count", res.Count),
	)

	return res, nil
}

// =========================================================================
// COMMENTS
// =========================================================================

// CreateComment adds a comment to an existing post and, unless the author
// is commenting on their own post, notifies the post's author.
func (s *EngagementService) CreateComment(ctx context.Context, userID, postID, content string) (*model.CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	var (
		view   model.CommentView
		notify *model.Notification
	)
	err := s.store.WithTx(ctx, func(tx repository.Repository) error {
		notify = nil

		post, err := tx.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		author, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		comment := &model.Comment{AuthorID: userID, PostID: postID, Content: content}
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		view = model.CommentView{Comment: *comment, Author: author.Summary()}

		if userID != post.AuthorID {
			notify = model.NewCommentNotification(post.AuthorID, userID, postID, comment.ID)
			return tx.CreateNotification(ctx, notify)
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.logger, "create comment", err,
			slog.String("userID", userID),
			slog.String("postID", postID),
		)
	}

	metrics.ContentCreated.WithLabelValues("comment").Inc()
	if notify != nil {
		metrics.NotificationsCreated.WithLabelValues(string(notify.Kind)).Inc()
	}
	s.logger.Info("comment created",
		slog.String("id", view.ID),
		slog.String("postID", postID),
		slog.String("authorID", userID),
	)

	return &view, nil
}

// =========================================================================
// FOLLOWS
// =========================================================================

// ToggleFollow flips the followerID → targetID edge. Only the absent →
// present transition notifies the target; unfollowing keeps the earlier
// notification.
func (s *EngagementService) ToggleFollow(ctx context.Context, followerID, targetID string) (FollowResult, error) {
	if followerID == targetID {
		return FollowResult{}, apperror.ValidationFailed("userId", "you cannot follow yourself")
	}

	var (
		res    FollowResult
		raced  bool
		notify *model.Notification
	)

	err := s.store.WithTx(ctx, func(tx repository.Repository) error {
		res, raced, notify = FollowResult{}, false, nil

		if _, err := tx.GetUserByID(ctx, followerID); err != nil {
			return err
		}
		if _, err := tx.GetUserByID(ctx, targetID); err != nil {
			return err
		}

		removed, err := tx.DeleteFollow(ctx, followerID, targetID)
		if err != nil || removed {
			return err
		}

		res.Following = true
		switch err := tx.InsertFollow(ctx, followerID, targetID); {
		case apperror.Is(err, apperror.ErrConflict):
			raced = true
			return nil
		case err != nil:
			return err
		}

		notify = model.NewFollowNotification(targetID, followerID)
		return tx.CreateNotification(ctx, notify)
	})
	if err != nil {
		return FollowResult{}, fail(s.logger, "toggle follow", err,
			slog.String("followerID", followerID),
			slog.String("targetID", targetID),
		)
	}

	metrics.RecordToggle("follow", res.Following)
	if raced {
		metrics.ToggleRaces.WithLabelValues("follow").Inc()
	}
	if notify != nil {
		metrics.NotificationsCreated.WithLabelValues(string(notify.Kind)).Inc()
	}
	s.logger.Info("follow toggled",
		slog.String("followerID", followerID),
		slog.String("targetID", targetID),
		slog.Bool("following", res.Following),
	)

	return res, nil
}

// IsFollowing reports whether followerID follows targetID. An anonymous
// follower (empty ID) follows nobody.
func (s *EngagementService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == "" || followerID == targetID {
		return false, nil
	}
	ok, err := s.store.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return false, fail(s.logger, "check follow", err, slog.String("followerID", followerID))
	}
	return ok, nil
}
