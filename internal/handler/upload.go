package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/media"
)

// UploadHandler accepts images and hands back the URL to reference from a
// post or profile.
type UploadHandler struct {
	store  media.Store
	logger *slog.Logger
}

func NewUploadHandler(store media.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// HandleUpload stores one image.
//
// HTTP: POST /api/uploads (multipart/form-data, field "file")
// RESPONSE: {"url": "https://..."}
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	// Room for the multipart envelope on top of the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageSize+(64<<10))

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.ValidationFailed("file", "file must be 5 MB or less"))
			return
		}
		writeError(w, apperror.ValidationFailed("file", "a file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := media.Validate(contentType, header.Size); err != nil {
		writeError(w, err)
		return
	}

	url, err := h.store.Put(r.Context(), header.Filename, file, header.Size, contentType)
	if err != nil {
		if !apperror.Is(err, apperror.ErrValidation) {
			h.logger.Error("upload failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	h.logger.Info("image uploaded",
		slog.String("userID", userID),
		slog.String("url", url),
		slog.Int64("bytes", header.Size),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
