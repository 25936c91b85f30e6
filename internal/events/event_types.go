package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventLogout         EventType = "logout"
	EventAccountCreated EventType = "account_created"
	EventAccountDeleted EventType = "account_deleted"
)

// Actor identifies the account that caused the event, when known.
type Actor struct {
	AccountID int64  `json:"account_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Event represents an audit-worthy occurrence emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// LoginFailedPayload payload. Reason is internal only and never sent to clients.
type LoginFailedPayload struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// AccountPayload payload for account lifecycle events.
type AccountPayload struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
}
