package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/service"
)

// NotificationHandler serves the signed-in user's notifications.
type NotificationHandler struct {
	engagement *service.EngagementService
	logger     *slog.Logger
}

func NewNotificationHandler(engagement *service.EngagementService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{engagement: engagement, logger: logger}
}

type markReadRequest struct {
	IDs []string `json:"ids" validate:"max=500,dive,max=64"`
}

// HandleList returns the caller's notifications, newest first. Listing
// does not mark anything read.
//
// HTTP: GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	list, err := h.engagement.ListNotifications(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleUnreadCount feeds the notification badge.
//
// HTTP: GET /api/notifications/unread-count
// RESPONSE: {"count": 2}
func (h *NotificationHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	n, err := h.engagement.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// HandleMarkRead marks the given notifications read. IDs that are unknown
// or belong to someone else are ignored.
//
// HTTP: POST /api/notifications/read
// REQUEST BODY: {"ids": ["...", "..."]}
// RESPONSE: {"updated": 1}
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req markReadRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.engagement.MarkRead(r.Context(), userID, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}
