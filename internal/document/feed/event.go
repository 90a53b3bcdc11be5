// Package feed carries document change events between sessions. The remote
// store announces every mutation on a pub/sub channel; each engine instance
// subscribes and reconciles the events into its in-memory collection.
//
// Delivery is at-least-once and not necessarily ordered; consumers must
// treat each event as a last-write-wins upsert keyed by id and updated_at.
package feed

import (
	"complyline/internal/document/models"
)

// EventType mirrors the remote store's change kinds.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event describes one remote insert/update/delete of a document record.
// Insert and update carry the new record; delete carries only the old id.
type Event struct {
	Type EventType        `json:"event_type"`
	Doc  *models.Document `json:"new,omitempty"`
	Old  *EventOld        `json:"old,omitempty"`
}

// EventOld identifies the record a delete removed.
type EventOld struct {
	ID string `json:"id"`
}

// DocumentID returns the id the event refers to, whichever side carries it.
func (e Event) DocumentID() string {
	if e.Doc != nil {
		return e.Doc.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return ""
}

// Inserted builds an insert event for doc.
func Inserted(doc *models.Document) Event {
	return Event{Type: EventInsert, Doc: doc}
}

// Updated builds an update event for doc.
func Updated(doc *models.Document) Event {
	return Event{Type: EventUpdate, Doc: doc}
}

// Deleted builds a delete event for the given id.
func Deleted(id string) Event {
	return Event{Type: EventDelete, Old: &EventOld{ID: id}}
}
