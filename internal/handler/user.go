package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/service"
)

// UserHandler serves profiles, the follow toggle and suggestions.
type UserHandler struct {
	engagement *service.EngagementService
	logger     *slog.Logger
}

func NewUserHandler(engagement *service.EngagementService, logger *slog.Logger) *UserHandler {
	return &UserHandler{engagement: engagement, logger: logger}
}

type updateProfileRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Bio      string `json:"bio" validate:"max=500"`
	Location string `json:"location" validate:"max=100"`
	Website  string `json:"website" validate:"max=200"`
}

// profileResponse adds the viewer's follow state to a profile.
type profileResponse struct {
	*model.Profile
	IsFollowing bool `json:"isFollowing"`
}

// HandleProfile returns a user with their follower, following and post
// counts.
//
// HTTP: GET /api/profiles/{username}
// Auth: optional; a signed-in viewer also learns whether they follow.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engagement.GetProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	following, err := h.engagement.IsFollowing(r.Context(), viewerID(r), profile.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Profile: profile, IsFollowing: following})
}

// HandleUserPosts lists posts written by a user.
//
// HTTP: GET /api/profiles/{username}/posts
func (h *UserHandler) HandleUserPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.engagement.ListUserPosts(r.Context(), chi.URLParam(r, "username"), viewerID(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleLikedPosts lists posts a user has liked.
//
// HTTP: GET /api/profiles/{username}/likes
func (h *UserHandler) HandleLikedPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.engagement.ListLikedPosts(r.Context(), chi.URLParam(r, "username"), viewerID(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleToggleFollow follows or unfollows a user.
//
// HTTP: POST /api/users/{id}/follow
// RESPONSE: {"following": true}
func (h *UserHandler) HandleToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	res, err := h.engagement.ToggleFollow(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSuggestions returns a few users the caller does not follow yet.
//
// HTTP: GET /api/users/suggestions?limit=3
func (h *UserHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	limit, err := intParam(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.engagement.SuggestUsers(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleUpdateProfile edits the caller's profile. Omitted or empty fields
// are cleared.
//
// HTTP: PATCH /api/me/profile
// REQUEST BODY: {"name": "...", "bio": "...", "location": "...", "website": "..."}
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.engagement.UpdateProfile(r.Context(), userID, model.ProfileUpdate{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
