package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRegistered     EventType = "registered"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventLogout         EventType = "logout"
)

// Event represents an authentication event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IdentityID *int64      `json:"identity_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// LoginPayload carries the email and token roles of a login attempt.
type LoginPayload struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}
