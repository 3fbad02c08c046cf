package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/auth"
	"github.com/example/opticstore/pkg/config"
	"github.com/example/opticstore/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	cfg := &config.Config{}
	cfg.Auth.CookieName = "session"
	srv := New(cfg, zap.NewNop(), Deps{Tokens: tokens})
	return srv, tokens
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)

	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.IsStatus)
	assert.Equal(t, "Route not found", env.Msg)
}

func TestAuthRequiredWithoutToken(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)

	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.IsStatus)
	assert.Equal(t, "authentication required", env.Msg)
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	srv, _ := newTestServer(t)
	other := auth.NewTokenManager("other-secret", time.Hour)
	token, err := other.Issue("652f1a", models.RoleUser, "u", "u@example.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGateRejectsRegularUsers(t *testing.T) {
	srv, tokens := newTestServer(t)
	token, err := tokens.Issue("652f1a", models.RoleUser, "u", "u@example.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/products/652f1a2b3c4d5e6f7a8b9c0d", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "admin access required", env.Msg)
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	srv, tokens := newTestServer(t)
	token, err := tokens.Issue("652f1a", models.RoleUser, "u", "u@example.com")
	require.NoError(t, err)

	// A regular user through the cookie path reaches the admin gate, not
	// the auth gate.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/products/652f1a2b3c4d5e6f7a8b9c0d", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})

	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
