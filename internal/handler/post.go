package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/service"
)

// PostHandler serves the feed and the post-level engagement endpoints.
type PostHandler struct {
	engagement *service.EngagementService
	logger     *slog.Logger
}

func NewPostHandler(engagement *service.EngagementService, logger *slog.Logger) *PostHandler {
	return &PostHandler{engagement: engagement, logger: logger}
}

type createPostRequest struct {
	Content string `json:"content" validate:"max=5000"`
	Image   string `json:"image" validate:"omitempty,url"`
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// HandleFeed lists every post, newest first.
//
// HTTP: GET /api/posts?limit=20&offset=0
// Auth: optional; a signed-in viewer gets "liked" flags.
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.engagement.ListFeed(r.Context(), viewerID(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleCreate publishes a post for the signed-in user.
//
// HTTP: POST /api/posts
// REQUEST BODY: {"content": "hello", "image": "https://..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createPostRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.engagement.CreatePost(r.Context(), userID, req.Content, req.Image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleDelete removes a post. Only its author may do so.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.engagement.DeletePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleLike likes or unlikes a post.
//
// HTTP: POST /api/posts/{id}/like
// RESPONSE: {"liked": true, "count": 3}
func (h *PostHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	res, err := h.engagement.ToggleLike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCreateComment adds a comment under a post.
//
// HTTP: POST /api/posts/{id}/comments
// REQUEST BODY: {"content": "nice"}
func (h *PostHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createCommentRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.engagement.CreateComment(r.Context(), userID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
