// Package audit records structured, append-only events for the actions
// that matter after the fact: logins, registration submissions, audit
// decisions, payments. Events flow through a publisher to a sink; the
// sink may be local memory or a Kafka topic.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names follow a noun.verb convention.
const (
	ActionUserRegistered        = "user.registered"
	ActionUserLogin             = "user.login"
	ActionUserLoginFailed       = "user.login_failed"
	ActionRegistrationSubmitted = "registration.submitted"
	ActionRegistrationAudited   = "registration.audited"
	ActionRegistrationCanceled  = "registration.canceled"
	ActionOrderCreated          = "payment.order_created"
	ActionOrderPaid             = "payment.paid"
	ActionOrderRefunded         = "payment.refunded"
	ActionOrderClosed           = "payment.order_closed"
)

// Event is a single audit record.
type Event struct {
	ID        string         `json:"id"`
	UserID    int64          `json:"userId"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent stamps an event with an ID and the current time.
func NewEvent(userID int64, action string, details map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now(),
	}
}
