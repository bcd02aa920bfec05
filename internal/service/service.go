// Package service contains the business rules of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take a repository.Store (an interface), never a *sqlite.DB, and
// accept plain values rather than HTTP types, so they can be driven from a
// handler, a test or a CLI alike.
//
// Errors a caller can act on are *apperror.AppError values and are returned
// unchanged. Anything else is a store failure: it is logged here and
// wrapped with the operation name.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/postagram/internal/apperror"
)

// Validation and paging limits.
const (
	MaxPostLength     = 5000
	MaxCommentLength  = 2000
	MaxNameLength     = 100
	MaxBioLength      = 500
	MaxLocationLength = 100
	MaxWebsiteLength  = 200

	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultSuggestions = 3
	MaxSuggestions     = 20
)

// fail passes domain errors through and logs and wraps everything else.
func fail(logger *slog.Logger, op string, err error, attrs ...any) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error("failed to "+op, append(attrs, slog.String("error", err.Error()))...)
	return fmt.Errorf("%s: %w", op, err)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
