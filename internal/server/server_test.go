package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/config"
)

type stubIdentity struct{ identity auth.Identity }

func (s stubIdentity) AuthURL(state string) string {
	return "https://idp.example/authorize?state=" + state
}

func (s stubIdentity) Exchange(context.Context, string) (*auth.Identity, error) {
	id := s.identity
	return &id, nil
}

type stubMedia struct{}

func (stubMedia) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "https://media.example/" + name, err
}

func newTestServer(t *testing.T, cfg *config.Config, deps Deps) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, logger, deps)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func authConfig() *config.Config {
	return &config.Config{
		Port:       8080,
		DBPath:     ":memory:",
		JWTSecret:  "0123456789abcdef-test",
		SessionTTL: time.Hour,
	}
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

// login runs the OAuth round trip and returns the session cookie.
func login(t *testing.T, s *Server) *http.Cookie {
	t.Helper()

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	var state *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c
		}
	}
	require.NotNil(t, state)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=c&state="+state.Value, nil)
	req.AddCookie(state)
	rr = serve(s, req)
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())

	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestServer_EndToEnd(t *testing.T) {
	s := newTestServer(t, authConfig(), Deps{
		Identity: stubIdentity{auth.Identity{Subject: "github:7", Username: "ada"}},
		Media:    stubMedia{},
	})
	session := login(t, s)

	// Writes need a session.
	rr := serve(s, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"hi"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"hi"}`))
	req.AddCookie(session)
	rr = serve(s, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&post))

	// The Authorization header works as well as the cookie.
	req = httptest.NewRequest(http.MethodPost, "/api/posts/"+post.ID+"/like", nil)
	req.Header.Set("Authorization", "Bearer "+session.Value)
	rr = serve(s, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"liked":true,"count":1}`, rr.Body.String())

	// Reads are public; the liked flag needs a viewer.
	rr = serve(s, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"liked":false`)

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.AddCookie(session)
	rr = serve(s, req)
	assert.Contains(t, rr.Body.String(), `"liked":true`)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(session)
	rr = serve(s, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"ada"`)

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles/ada", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"posts":1`)
}

func TestServer_UploadRouteNeedsMedia(t *testing.T) {
	s := newTestServer(t, authConfig(), Deps{
		Identity: stubIdentity{auth.Identity{Subject: "github:7", Username: "ada"}},
	})
	session := login(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
	req.AddCookie(session)
	rr := serve(s, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_AuthDisabled(t *testing.T) {
	cfg := authConfig()
	cfg.JWTSecret = ""
	s := newTestServer(t, cfg, Deps{})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = serve(s, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"x"}`)))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, authConfig(), Deps{Identity: stubIdentity{}})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "postagram_http_request_duration_seconds")
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := authConfig()
	cfg.JWTSecret = "short"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{})
	assert.Error(t, err)
}
