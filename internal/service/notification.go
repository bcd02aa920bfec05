package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/postagram/internal/model"
)

// ListNotifications returns the user's notifications, newest first. Reading
// them does not mark them as read; that is MarkRead's job.
func (s *EngagementService) ListNotifications(ctx context.Context, userID string) ([]model.NotificationView, error) {
	list, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fail(s.logger, "list notifications", err, slog.String("userID", userID))
	}
	return list, nil
}

// MarkRead flips the given notifications to read. IDs that belong to other
// users or do not exist are skipped without error. Read never goes back to
// unread.
func (s *EngagementService) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	seen := make(map[string]struct{}, len(ids))
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}

	n, err := s.store.MarkRead(ctx, userID, clean)
	if err != nil {
		return 0, fail(s.logger, "mark notifications read", err, slog.String("userID", userID))
	}

	if n > 0 {
		s.logger.Info("notifications marked read",
			slog.String("userID", userID),
			slog.Int("count", n),
		)
	}
	return n, nil
}

// UnreadCount backs the unread badge.
func (s *EngagementService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, fail(s.logger, "count unread notifications", err, slog.String("userID", userID))
	}
	return n, nil
}
