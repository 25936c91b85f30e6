package auth

import (
	"context"

	"github.com/spec-kit/salesflow/internal/domain"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

// SessionResolver maps a session token to its live session.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
}

// Authorize decides whether the holder of token may proceed. With no roles any
// live session passes; otherwise the session role must be one of roles.
// Missing or expired sessions yield UNAUTHENTICATED, a role mismatch FORBIDDEN.
func Authorize(ctx context.Context, resolver SessionResolver, token string, roles ...domain.Role) (*domain.Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}

	session, err := resolver.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}

	if !roleAllowed(session.User.Role, roles) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	return session, nil
}
