package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

// GetProfile returns the user behind username with follower, following and
// post counts computed from the relation tables at read time.
func (s *EngagementService) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	var profile model.Profile
	err := s.store.WithTx(ctx, func(tx repository.Repository) error {
		user, err := tx.GetUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		counts, err := tx.CountProfile(ctx, user.ID)
		if err != nil {
			return err
		}
		profile = model.Profile{User: *user, Counts: counts}
		return nil
	})
	if err != nil {
		return nil, fail(s.logger, "get profile", err, slog.String("username", username))
	}
	return &profile, nil
}

// UpdateProfile replaces the editable profile fields. Blank values clear the
// field.
func (s *EngagementService) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error) {
	update = model.ProfileUpdate{
		Name:     strings.TrimSpace(update.Name),
		Bio:      strings.TrimSpace(update.Bio),
		Location: strings.TrimSpace(update.Location),
		Website:  strings.TrimSpace(update.Website),
	}

	limits := []struct {
		field, value string
		max          int
	}{
		{"name", update.Name, MaxNameLength},
		{"bio", update.Bio, MaxBioLength},
		{"location", update.Location, MaxLocationLength},
		{"website", update.Website, MaxWebsiteLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return nil, apperror.ValidationFailed(l.field,
				fmt.Sprintf("%s must be %d characters or less", l.field, l.max))
		}
	}

	user, err := s.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fail(s.logger, "update profile", err, slog.String("userID", userID))
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}

// SuggestUsers picks up to limit random users that userID does not follow.
func (s *EngagementService) SuggestUsers(ctx context.Context, userID string, limit int) ([]model.UserSummary, error) {
	users, err := s.store.SuggestUsers(ctx, userID, clampLimit(limit, DefaultSuggestions, MaxSuggestions))
	if err != nil {
		return nil, fail(s.logger, "suggest users", err, slog.String("userID", userID))
	}
	return users, nil
}
