package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salesflow/internal/api/dto"
	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/service"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler exposes login, logout and session lookup.
type AuthHandler struct {
	auth       *service.AuthService
	tokens     *auth.TokenManager
	middleware *auth.Middleware
	cookie     CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, tokens *auth.TokenManager, middleware *auth.Middleware, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{auth: authService, tokens: tokens, middleware: middleware, cookie: cookie}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sess, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	signed, err := h.tokens.SignToken(sess.Token, sess.ExpiresAt)
	if err != nil {
		h.auth.Logout(c.UserContext(), sess.Token)
		return apperrors.NewInternalError(err)
	}
	c.Cookie(h.sessionCookie(signed, sess.ExpiresAt))

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": sess.User,
			"auth": dto.AuthResponse{Token: signed, ExpiresAt: sess.ExpiresAt},
		},
	})
}

// Logout handles POST /api/auth/logout. It always succeeds and always clears
// the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.auth.Logout(c.UserContext(), h.middleware.TokenFromRequest(c))

	cookie := h.sessionCookie("", time.Unix(0, 0))
	c.Cookie(cookie)

	return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":       sess.User,
			"expires_at": sess.ExpiresAt,
		},
	})
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
