// Package session holds server-side session records keyed by opaque token.
//
// Every backend enforces expiry twice: Get treats a session whose ExpiresAt has
// passed as absent even before it is swept, and Sweep physically removes every
// record with ExpiresAt <= now.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/salesflow/internal/domain"
)

// ErrNotFound is returned by Get for absent or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists sessions by token.
type Store interface {
	// Put stores s under s.Token, replacing any existing record.
	Put(ctx context.Context, s *domain.Session) error
	// Get returns the live session for token or ErrNotFound.
	Get(ctx context.Context, token string) (*domain.Session, error)
	// Delete removes the session; deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
	// Sweep removes sessions expiring at or before now and reports how many.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
