// Package activity records the document activity trail. Workflow actions are
// emitted from the engine, buffered through a channel, and produced to Kafka
// by a background worker so user operations never block on the broker.
package activity

import (
	"context"
	"time"
)

// Action identifies what happened to a document.
type Action string

const (
	ActionCreated   Action = "created"
	ActionEdited    Action = "edited"
	ActionSubmitted Action = "submitted"
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionPublished Action = "published"
	ActionArchived  Action = "archived"
	ActionDeleted   Action = "deleted"
)

// Event is one entry in the activity trail. Keep it transport-agnostic so
// sinks can fan out.
type Event struct {
	DocumentID    string    `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	Action        Action    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"user_id,omitempty"`
	// Comment carries the approval comment or rejection reason.
	Comment string `json:"comment,omitempty"`
}

// Publisher accepts activity events. Emit must not block user operations;
// implementations drop or buffer under pressure.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}
