package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/domain"
	"github.com/spec-kit/salesflow/internal/persistence"
)

func strPtr(s string) *string { return &s }

// runAccountContract checks behaviour shared by every AccountRepository.
func runAccountContract(t *testing.T, newRepo func(t *testing.T) AccountRepository) {
	ctx := context.Background()

	t.Run("create assigns id and created_at", func(t *testing.T) {
		repo := newRepo(t)
		account := &domain.Account{
			Username:        "ana",
			PasswordHash:    "hash",
			DisplayName:     "Ana",
			Email:           strPtr("ana@example.com"),
			Role:            domain.RoleSDR,
			ExternalStaffID: strPtr("12"),
		}
		require.NoError(t, repo.Create(ctx, account))
		assert.NotZero(t, account.ID)
		assert.False(t, account.CreatedAt.IsZero())

		got, err := repo.GetByUsername(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, domain.RoleSDR, got.Role)
		assert.Equal(t, "12", *got.ExternalStaffID)

		byID, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana", byID.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &domain.Account{Username: "bob", PasswordHash: "h", DisplayName: "Bob", Role: domain.RoleSDR}))

		err := repo.Create(ctx, &domain.Account{Username: "bob", PasswordHash: "h", DisplayName: "Bob 2", Role: domain.RoleSDR})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &domain.Account{Username: "carla", PasswordHash: "h", DisplayName: "C", Role: domain.RoleSDR}))
		require.NoError(t, repo.Create(ctx, &domain.Account{Username: "Carla", PasswordHash: "h", DisplayName: "C", Role: domain.RoleSDR}))

		_, err := repo.GetByUsername(ctx, "CARLA")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list orders by id and delete is unconditional", func(t *testing.T) {
		repo := newRepo(t)
		first := &domain.Account{Username: "u1", PasswordHash: "h", DisplayName: "U1", Role: domain.RoleAdmin}
		second := &domain.Account{Username: "u2", PasswordHash: "h", DisplayName: "U2", Role: domain.RoleSDR}
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "u1", list[0].Username)
		assert.Nil(t, list[0].Email)

		require.NoError(t, repo.Delete(ctx, first.ID))
		require.NoError(t, repo.Delete(ctx, first.ID))
		require.NoError(t, repo.Delete(ctx, 999999))

		_, err = repo.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		list, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestMemoryAccountRepository(t *testing.T) {
	runAccountContract(t, func(t *testing.T) AccountRepository {
		return NewMemoryAccountRepository()
	})
}

func TestMemoryAccountRepositoryReusesFreedUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	account := &domain.Account{Username: "dora", PasswordHash: "h", DisplayName: "D", Role: domain.RoleSDR}
	require.NoError(t, repo.Create(ctx, account))
	require.NoError(t, repo.Delete(ctx, account.ID))

	assert.NoError(t, repo.Create(ctx, &domain.Account{Username: "dora", PasswordHash: "h", DisplayName: "D", Role: domain.RoleSDR}))
}

func TestPostgresAccountRepository(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping PostgreSQL tests")
	}

	runAccountContract(t, func(t *testing.T) AccountRepository {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, databaseURL)
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
		_, err = pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
		require.NoError(t, err)
		return NewAccountRepository(pool)
	})
}
