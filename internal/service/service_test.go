package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/domain"
	"github.com/spec-kit/salesflow/internal/events"
	"github.com/spec-kit/salesflow/internal/repository"
	"github.com/spec-kit/salesflow/internal/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	clock    *fakeClock
	accounts *repository.MemoryAccountRepository
	sessions *session.MemoryStore
	hasher   auth.PasswordHasher
	recorder *eventRecorder
	auth     *AuthService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:    newFakeClock(),
		accounts: repository.NewMemoryAccountRepository(),
		hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
		recorder: &eventRecorder{},
	}
	f.sessions = session.NewMemoryStore(f.clock.Now)

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventLoginSucceeded, events.EventLoginFailed, events.EventLogout,
		events.EventAccountCreated, events.EventAccountDeleted,
	} {
		dispatcher.Subscribe(et, f.recorder.handle)
	}

	f.auth = NewAuthService(AuthDependencies{
		Accounts:   f.accounts,
		Sessions:   f.sessions,
		Hasher:     f.hasher,
		Dispatcher: dispatcher,
		SessionTTL: 24 * time.Hour,
		Now:        f.clock.Now,
	})
	f.users = NewUserService(UserDependencies{
		Accounts:   f.accounts,
		Hasher:     f.hasher,
		Dispatcher: dispatcher,
	})
	return f
}

func (f *fixture) seed(t *testing.T, username, password string, role domain.Role, staffID *string) *domain.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	account := &domain.Account{
		Username:        username,
		PasswordHash:    hash,
		DisplayName:     username,
		Role:            role,
		ExternalStaffID: staffID,
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

func strPtr(s string) *string { return &s }
