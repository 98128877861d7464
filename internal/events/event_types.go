package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventRegistrationRejected EventType = "registration_rejected"
	EventLoginSucceeded       EventType = "login_succeeded"
	EventLoginFailed          EventType = "login_failed"
	EventLoginLocked          EventType = "login_locked"
)

var knownTypes = map[EventType]struct{}{
	EventUserRegistered:       {},
	EventRegistrationRejected: {},
	EventLoginSucceeded:       {},
	EventLoginFailed:          {},
	EventLoginLocked:          {},
}

// Known reports whether t is one of the auth event types.
func (t EventType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Event represents a security event emitted by the auth service.
// Subject is the account email the event concerns. ID and Timestamp are
// stamped by the dispatcher when left empty.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// RegistrationRejectedPayload payload. Reason doubles as the metrics outcome.
type RegistrationRejectedPayload struct {
	Reason string `json:"reason"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedPayload payload. Reason is internal only and never sent to clients.
type LoginFailedPayload struct {
	Reason   string `json:"reason"`
	Failures int64  `json:"failures"`
}
