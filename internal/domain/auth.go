package domain

import "time"

// SessionUser is the account snapshot taken at login. Later edits to the
// account are not reflected until the user logs in again.
type SessionUser struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	DisplayName     string  `json:"name"`
	Role            Role    `json:"role"`
	ExternalStaffID *string `json:"staffId"`
}

// IsAdmin reports whether the snapshot carries the admin role.
func (u SessionUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// StaffID returns the linked CRM staff id or "".
func (u SessionUser) StaffID() string {
	if u.ExternalStaffID == nil {
		return ""
	}
	return *u.ExternalStaffID
}

// Session is a server-held proof of a successful login.
type Session struct {
	Token     string      `json:"token"`
	User      SessionUser `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers never share the staff id pointer.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	if s.User.ExternalStaffID != nil {
		staffID := *s.User.ExternalStaffID
		clone.User.ExternalStaffID = &staffID
	}
	return &clone
}
