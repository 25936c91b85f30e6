package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/domain"
	"github.com/spec-kit/salesflow/internal/events"
	"github.com/spec-kit/salesflow/internal/repository"
	"github.com/spec-kit/salesflow/internal/session"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

const defaultSessionTTL = 24 * time.Hour

// AuthService coordinates login, logout and session lookup.
type AuthService struct {
	accounts   repository.AccountRepository
	sessions   session.Store
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time
	newToken   func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates the collaborators of the auth service.
type AuthDependencies struct {
	Accounts   repository.AccountRepository
	Sessions   session.Store
	Hasher     auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	SessionTTL time.Duration
	Now        func() time.Time
	NewToken   func() (string, error)
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		accounts:   deps.Accounts,
		sessions:   deps.Sessions,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		ttl:        deps.SessionTTL,
		now:        deps.Now,
		newToken:   deps.NewToken,
	}
	if s.hasher == nil {
		s.hasher = auth.NewBcryptHasher(auth.DefaultBcryptCost)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.ttl <= 0 {
		s.ttl = defaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newToken == nil {
		s.newToken = session.NewToken
	}
	return s
}

// Login verifies credentials and opens a new session. Unknown usernames and
// wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Verify(password, s.placeholderHash())
		s.loginFailed(ctx, username, "unknown_username")
		return nil, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		s.loginFailed(ctx, username, "wrong_password")
		return nil, apperrors.NewInvalidCredentials()
	}

	token, err := s.newToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	sess := &domain.Session{
		Token:     token,
		User:      account.Snapshot(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("login succeeded", zap.Int64("account_id", account.ID), zap.String("role", string(account.Role)))
	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded,
		events.Actor{AccountID: account.ID, Username: account.Username}, nil))
	return sess, nil
}

// Logout ends the session identified by token. Unknown tokens are ignored and
// store failures are only logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	existing, err := s.sessions.Get(ctx, token)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		s.logger.Warn("session lookup during logout failed", zap.Error(err))
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Warn("session delete during logout failed", zap.Error(err))
		return
	}
	if existing != nil {
		s.publish(ctx, events.NewEvent(events.EventLogout,
			events.Actor{AccountID: existing.User.ID, Username: existing.User.Username}, nil))
	}
}

// CurrentSession returns the live session for token.
func (s *AuthService) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return nil, apperrors.NewUnauthenticated("session expired or invalid")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return sess, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("salesflow-placeholder-password")
		if err != nil {
			s.logger.Warn("placeholder hash unavailable", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) loginFailed(ctx context.Context, username, reason string) {
	s.logger.Info("login failed", zap.String("reason", reason))
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, events.Actor{},
		events.LoginFailedPayload{Username: username, Reason: reason}))
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
