package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleSDR.Valid())
	assert.False(t, Role("manager").Valid())
	assert.False(t, Role("").Valid())
}

func TestSnapshotIsDetached(t *testing.T) {
	staffID := "7"
	account := &Account{ID: 3, Username: "ana", DisplayName: "Ana", Role: RoleSDR, ExternalStaffID: &staffID}

	snap := account.Snapshot()
	staffID = "9"
	account.Role = RoleAdmin

	assert.Equal(t, "7", snap.StaffID())
	assert.Equal(t, RoleSDR, snap.Role)
	assert.False(t, snap.IsAdmin())
}

func TestSessionExpiredAtBoundary(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}

	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Nanosecond)))
}

func TestSessionClone(t *testing.T) {
	staffID := "1"
	s := &Session{Token: "t", User: SessionUser{ExternalStaffID: &staffID}}

	c := s.Clone()
	*c.User.ExternalStaffID = "2"

	assert.Equal(t, "1", *s.User.ExternalStaffID)
	assert.Nil(t, (*Session)(nil).Clone())
}
