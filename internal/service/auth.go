package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/model"
	"github.com/sakif/postagram/internal/repository"
)

// AuthService maps identity-provider logins to local users and issues
// session tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                                 ↘ TokenService (JWT)
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthResult bundles the user and the issued token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User    *model.User
	Token   string
	Created bool
}

// LoginOrRegister resolves identity to a local user, provisioning one on the
// first login, and issues a session token.
//
// A returning user is matched on Subject only; their stored profile is left
// alone so local edits are not overwritten by the provider on every login.
func (s *AuthService) LoginOrRegister(ctx context.Context, identity *auth.Identity) (*AuthResult, error) {
	if identity == nil || identity.Subject == "" {
		return nil, apperror.ValidationFailed("subject", "identity has no subject")
	}

	user, created, err := s.provision(ctx, identity)
	if err != nil {
		return nil, fail(s.logger, "provision user", err, slog.String("subject", identity.Subject))
	}

	if created {
		s.logger.Info("user registered",
			slog.String("userID", user.ID),
			slog.String("username", user.Username),
		)
	} else {
		s.logger.Info("user logged in", slog.String("userID", user.ID))
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token, Created: created}, nil
}

func (s *AuthService) provision(ctx context.Context, identity *auth.Identity) (*model.User, bool, error) {
	existing, err := s.users.GetUserBySubject(ctx, identity.Subject)
	if err == nil {
		return existing, false, nil
	}
	if !apperror.Is(err, apperror.ErrNotFound) {
		return nil, false, err
	}

	user := &model.User{
		Subject:  identity.Subject,
		Email:    identity.Email,
		Username: baseUsername(identity),
		Name:     optional(identity.Name),
		Image:    optional(identity.AvatarURL),
	}

	// First attempt uses the provider's handle. On a conflict either the
	// handle is taken or a concurrent login for the same subject won.
	err = s.users.CreateUser(ctx, user)
	if apperror.Is(err, apperror.ErrConflict) {
		if existing, getErr := s.users.GetUserBySubject(ctx, identity.Subject); getErr == nil {
			return existing, false, nil
		}
		user.Username = withSuffix(user.Username)
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// GetUserByID returns the full user record for the /api/me handler.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fail(s.logger, "get user", err, slog.String("userID", id))
	}
	return user, nil
}

// ValidateToken returns the user ID a session token was issued for.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// SessionTTL is how long issued tokens stay valid; the session cookie
// lives exactly as long.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

const maxUsernameLength = 30

// baseUsername derives a username from the provider handle, falling back to
// the email's local part and then to "user". Only [a-z0-9_] survive.
func baseUsername(identity *auth.Identity) string {
	candidates := []string{identity.Username}
	if local, _, ok := strings.Cut(identity.Email, "@"); ok {
		candidates = append(candidates, local)
	}

	for _, c := range candidates {
		if name := sanitizeUsername(c); name != "" {
			return name
		}
	}
	return "user"
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune('_')
		}
		if b.Len() == maxUsernameLength {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}

// withSuffix makes a taken username unique with the random tail of an xid.
func withSuffix(username string) string {
	id := xid.New().String()
	suffix := id[len(id)-6:]
	if len(username) > maxUsernameLength-7 {
		username = username[:maxUsernameLength-7]
	}
	return username + "_" + suffix
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
