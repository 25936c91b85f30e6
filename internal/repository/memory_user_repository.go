package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/salesflow/internal/domain"
)

// MemoryAccountRepository is an in-process AccountRepository used when no
// database is configured and in tests.
type MemoryAccountRepository struct {
	mu         sync.Mutex
	nextID     int64
	accounts   map[int64]domain.Account
	byUsername map[string]int64
}

// NewMemoryAccountRepository returns an empty repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts:   make(map[int64]domain.Account),
		byUsername: make(map[string]int64),
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[account.Username]; taken {
		return ErrDuplicate
	}
	r.nextID++
	account.ID = r.nextID
	account.CreatedAt = time.Now().UTC()

	r.accounts[account.ID] = copyAccount(*account)
	r.byUsername[account.Username] = account.ID
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyAccount(account)
	return &out, nil
}

func (r *MemoryAccountRepository) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyAccount(r.accounts[id])
	return &out, nil
}

func (r *MemoryAccountRepository) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, copyAccount(account))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *MemoryAccountRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[id]; ok {
		delete(r.byUsername, account.Username)
		delete(r.accounts, id)
	}
	return nil
}

func copyAccount(a domain.Account) domain.Account {
	if a.Email != nil {
		email := *a.Email
		a.Email = &email
	}
	if a.ExternalStaffID != nil {
		staffID := *a.ExternalStaffID
		a.ExternalStaffID = &staffID
	}
	return a
}
