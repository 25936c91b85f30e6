package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/salesflow/internal/domain"
	"github.com/spec-kit/salesflow/internal/events"
	apperrors "github.com/spec-kit/salesflow/pkg/util/errorutil"
)

func TestAdminFlowEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "admin", "admin123", domain.RoleAdmin, nil)

	sess, err := f.auth.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, sess.User.Role)

	accounts, err := f.users.List(context.Background(), sess.User)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	body, err := json.Marshal(accounts)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")

	err = f.users.Delete(context.Background(), sess.User, sess.User.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeSelfDeletion))
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	accounts, err = f.users.List(context.Background(), sess.User)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestCreateAccountDefaultsAndHashing(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin", "admin123", domain.RoleAdmin, nil).Snapshot()

	created, err := f.users.Create(context.Background(), admin, CreateAccountInput{
		Username: "bia",
		Password: "pw",
		Name:     "Bia",
		StaffID:  "12",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.RoleSDR, created.Role)
	assert.NotEqual(t, "pw", created.PasswordHash)
	assert.True(t, f.hasher.Verify("pw", created.PasswordHash))
	assert.Nil(t, created.Email)
	require.NotNil(t, created.ExternalStaffID)
	assert.Equal(t, "12", *created.ExternalStaffID)

	sess, err := f.auth.Login(context.Background(), "bia", "pw")
	require.NoError(t, err)
	assert.Equal(t, "12", sess.User.StaffID())
	assert.Contains(t, f.recorder.types(), events.EventAccountCreated)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin", "admin123", domain.RoleAdmin, nil).Snapshot()

	cases := map[string]CreateAccountInput{
		"missing username":       {Password: "pw", Name: "X"},
		"missing password":       {Username: "x", Name: "X"},
		"missing name":           {Username: "x", Password: "pw"},
		"invalid role":           {Username: "x", Password: "pw", Name: "X", Role: "manager"},
		"password over 72 bytes": {Username: "x", Password: strings.Repeat("p", 73), Name: "X"},
		"username over 100":      {Username: strings.Repeat("u", 101), Password: "pw", Name: "X"},
		"name over 255":          {Username: "x", Password: "pw", Name: strings.Repeat("n", 256)},
		"email over 255":         {Username: "x", Password: "pw", Name: "X", Email: strings.Repeat("e", 256)},
		"staff id over 50":       {Username: "x", Password: "pw", Name: "X", StaffID: strings.Repeat("9", 51)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.users.Create(context.Background(), admin, in)
			assert.True(t, apperrors.IsKind(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	accounts, err := f.users.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestCreateAccountAtLimits(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin", "admin123", domain.RoleAdmin, nil).Snapshot()

	created, err := f.users.Create(context.Background(), admin, CreateAccountInput{
		Username: strings.Repeat("ú", domain.MaxUsernameLength),
		Password: strings.Repeat("p", domain.MaxPasswordBytes),
		Name:     "Limit",
		StaffID:  strings.Repeat("9", domain.MaxStaffIDLength),
	})
	require.NoError(t, err)
	assert.True(t, f.hasher.Verify(strings.Repeat("p", domain.MaxPasswordBytes), created.PasswordHash))
}

func TestCreateDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin", "admin123", domain.RoleAdmin, nil).Snapshot()

	_, err := f.users.Create(context.Background(), admin, CreateAccountInput{Username: "admin", Password: "x", Name: "Dup"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeDuplicateAccount))
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	accounts, err := f.users.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestUserAdminRequiresAdminActor(t *testing.T) {
	f := newFixture(t)
	sdr := f.seed(t, "ana", "pw", domain.RoleSDR, nil).Snapshot()

	_, err := f.users.List(context.Background(), sdr)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeForbidden))
	_, err = f.users.Create(context.Background(), sdr, CreateAccountInput{Username: "x", Password: "y", Name: "z"})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeForbidden))
	err = f.users.Delete(context.Background(), sdr, 99)
	assert.True(t, apperrors.IsKind(err, apperrors.CodeForbidden))
}

func TestDeleteOtherAndUnknownAccount(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin", "admin123", domain.RoleAdmin, nil).Snapshot()
	other := f.seed(t, "ana", "pw", domain.RoleSDR, nil)

	require.NoError(t, f.users.Delete(context.Background(), admin, other.ID))
	require.NoError(t, f.users.Delete(context.Background(), admin, 4242))

	accounts, err := f.users.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, admin.ID, accounts[0].ID)
}

func TestDeleteRecordsRemovedAccount(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin", "admin123", domain.RoleAdmin, nil).Snapshot()
	other := f.seed(t, "ana", "pw", domain.RoleSDR, nil)

	require.NoError(t, f.users.Delete(context.Background(), admin, 4242))
	require.NoError(t, f.users.Delete(context.Background(), admin, other.ID))

	var deleted []events.Event
	for _, e := range f.recorder.events {
		if e.Type == events.EventAccountDeleted {
			deleted = append(deleted, e)
		}
	}
	require.Len(t, deleted, 1)
	payload, ok := deleted[0].Payload.(events.AccountPayload)
	require.True(t, ok)
	assert.Equal(t, other.ID, payload.AccountID)
	assert.Equal(t, "ana", payload.Username)
	assert.Equal(t, "sdr", payload.Role)
	assert.Equal(t, admin.ID, deleted[0].Actor.AccountID)
}
