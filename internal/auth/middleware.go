package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salesflow/internal/domain"
)

const sessionKey = "auth_session"

// Middleware resolves the caller's session for protected routes.
type Middleware struct {
	resolver   SessionResolver
	tokens     *TokenManager
	cookieName string
}

// NewMiddleware constructs middleware.
func NewMiddleware(resolver SessionResolver, tokens *TokenManager, cookieName string) *Middleware {
	return &Middleware{resolver: resolver, tokens: tokens, cookieName: cookieName}
}

// RequireAuthenticated rejects callers without a live session.
func (m *Middleware) RequireAuthenticated() fiber.Handler {
	return m.gate()
}

// RequireAdmin rejects callers without a live admin session.
func (m *Middleware) RequireAdmin() fiber.Handler {
	return m.gate(domain.RoleAdmin)
}

func (m *Middleware) gate(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := Authorize(c.UserContext(), m.resolver, m.TokenFromRequest(c), roles...)
		if err != nil {
			return err
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// TokenFromRequest extracts the session token from the session cookie or an
// Authorization bearer header. Unsigned or tampered values yield "".
func (m *Middleware) TokenFromRequest(c *fiber.Ctx) string {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			raw = strings.TrimSpace(parts[1])
		}
	}
	if raw == "" {
		return ""
	}
	token, err := m.tokens.ParseToken(raw)
	if err != nil {
		return ""
	}
	return token
}

// SessionFromContext retrieves the session attached by the middleware.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.Session)
	return session, ok
}
