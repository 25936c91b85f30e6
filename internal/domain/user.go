package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleSDR   Role = "sdr"
)

// Column limits of the users table, in characters. Passwords are limited by
// bcrypt, which rejects more than MaxPasswordBytes bytes.
const (
	MaxUsernameLength = 100
	MaxNameLength     = 255
	MaxEmailLength    = 255
	MaxStaffIDLength  = 50
	MaxPasswordBytes  = 72
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSDR
}

// Account is a local, password-authenticated staff identity.
type Account struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	DisplayName     string    `json:"name"`
	Email           *string   `json:"email"`
	Role            Role      `json:"role"`
	ExternalStaffID *string   `json:"staffId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Snapshot copies the public fields stored in a session.
func (a *Account) Snapshot() SessionUser {
	user := SessionUser{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Role:        a.Role,
	}
	if a.ExternalStaffID != nil {
		staffID := *a.ExternalStaffID
		user.ExternalStaffID = &staffID
	}
	return user
}
