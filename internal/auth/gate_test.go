package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/salesflow/internal/domain"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

type resolverStub struct {
	sessions map[string]*domain.Session
	err      error
	calls    int
}

func (r *resolverStub) CurrentSession(_ context.Context, token string) (*domain.Session, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if s, ok := r.sessions[token]; ok {
		return s, nil
	}
	return nil, apperrors.NewUnauthenticated("session not found")
}

func newResolver() *resolverStub {
	return &resolverStub{sessions: map[string]*domain.Session{
		"admin-token": {Token: "admin-token", User: domain.SessionUser{ID: 1, Role: domain.RoleAdmin}},
		"sdr-token":   {Token: "sdr-token", User: domain.SessionUser{ID: 2, Role: domain.RoleSDR}},
	}}
}

func TestAuthorizeMissingToken(t *testing.T) {
	resolver := newResolver()

	_, err := Authorize(context.Background(), resolver, "")
	assert.True(t, apperrors.IsKind(err, apperrors.CodeUnauthenticated))
	assert.Zero(t, resolver.calls)
}

func TestAuthorizeAnySession(t *testing.T) {
	session, err := Authorize(context.Background(), newResolver(), "sdr-token")
	require.NoError(t, err)
	assert.Equal(t, int64(2), session.User.ID)
}

func TestAuthorizeAdminDistinguishesKinds(t *testing.T) {
	resolver := newResolver()

	_, err := Authorize(context.Background(), resolver, "sdr-token", domain.RoleAdmin)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeForbidden))

	_, err = Authorize(context.Background(), resolver, "unknown", domain.RoleAdmin)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeUnauthenticated))

	session, err := Authorize(context.Background(), resolver, "admin-token", domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin())
}

func TestAuthorizePropagatesStoreFailure(t *testing.T) {
	boom := errors.New("redis down")
	_, err := Authorize(context.Background(), &resolverStub{err: boom}, "admin-token")
	assert.ErrorIs(t, err, boom)
}

func newGateApp(t *testing.T, resolver SessionResolver, tm *TokenManager) *fiber.App {
	t.Helper()
	mw := NewMiddleware(resolver, tm, "salesflow.sid")
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/me", mw.RequireAuthenticated(), func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return errors.New("no session attached")
		}
		return c.SendString(string(session.User.Role))
	})
	app.Get("/admin", mw.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func signed(t *testing.T, tm *TokenManager, token string) string {
	t.Helper()
	value, err := tm.SignToken(token, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return value
}

func TestMiddlewareCookieAndBearer(t *testing.T) {
	tm := NewTokenManager("secret")
	app := newGateApp(t, newResolver(), tm)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "salesflow.sid", Value: signed(t, tm, "sdr-token")})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, tm, "admin-token"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsUnsignedToken(t *testing.T) {
	app := newGateApp(t, newResolver(), NewTokenManager("secret"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer sdr-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMiddlewareAdminGate(t *testing.T) {
	tm := NewTokenManager("secret")
	app := newGateApp(t, newResolver(), tm)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{name: "no session", token: "", status: http.StatusUnauthorized},
		{name: "sdr", token: "sdr-token", status: http.StatusForbidden},
		{name: "admin", token: "admin-token", status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+signed(t, tm, tc.token))
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
