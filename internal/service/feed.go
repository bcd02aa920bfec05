package service

import (
	"context"
	"log/slog"

	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

// ListFeed returns every post, newest first. viewerID may be empty for
// anonymous readers, in which case no post is marked as liked.
func (s *EngagementService) ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]model.FeedPost, error) {
	return s.listPosts(ctx, "list feed", repository.PostQuery{
		ViewerID:    viewerID,
		ListOptions: page(limit, offset),
	})
}

// ListUserPosts returns the posts written by username.
func (s *EngagementService) ListUserPosts(ctx context.Context, username, viewerID string, limit, offset int) ([]model.FeedPost, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fail(s.logger, "list user posts", err, slog.String("username", username))
	}
	return s.listPosts(ctx, "list user posts", repository.PostQuery{
		AuthorID:    user.ID,
		ViewerID:    viewerID,
		ListOptions: page(limit, offset),
	})
}

// ListLikedPosts returns the posts username has liked.
func (s *EngagementService) ListLikedPosts(ctx context.Context, username, viewerID string, limit, offset int) ([]model.FeedPost, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fail(s.logger, "list liked posts", err, slog.String("username", username))
	}
	return s.listPosts(ctx, "list liked posts", repository.PostQuery{
		LikedBy:     user.ID,
		ViewerID:    viewerID,
		ListOptions: page(limit, offset),
	})
}

func (s *EngagementService) listPosts(ctx context.Context, op string, q repository.PostQuery) ([]model.FeedPost, error) {
	posts, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return nil, fail(s.logger, op, err)
	}
	return posts, nil
}

func page(limit, offset int) repository.ListOptions {
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{
		Limit:  clampLimit(limit, DefaultListLimit, MaxListLimit),
		Offset: offset,
	}
}
