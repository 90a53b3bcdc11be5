package engine

import (
	"sort"
	"time"

	"complyline/internal/document/models"
	dErrors "complyline/pkg/domain-errors"
)

// Notifications returns the current notification list, newest first.
func (e *Engine) Notifications() []models.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Notification, len(e.notifications))
	copy(out, e.notifications)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MarkRead flags one notification as read. The flag survives regeneration
// because notification ids are deterministic per document and type.
func (e *Engine) MarkRead(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dErrors.New(dErrors.CodeUnavailable, "engine is closed")
	}
	for i := range e.notifications {
		if e.notifications[i].ID == id {
			e.notifications[i].IsRead = true
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "notification not found")
}

// ClearAll empties the notification list. Poll-derived notifications
// reappear unread on the next regeneration while their conditions hold;
// one-shot notifications are gone for good.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = nil
}

// regenerateLocked rederives the notification list from the current
// collection. Callers hold e.mu.
func (e *Engine) regenerateLocked(now time.Time) {
	docs := make([]*models.Document, 0, len(e.docs))
	for _, doc := range e.docs {
		docs = append(docs, doc)
	}
	e.notifications = e.generator.Generate(docs, e.notifications, now)
	if e.metrics != nil {
		e.metrics.NotificationsActive.Set(float64(len(e.notifications)))
	}
}

// appendOneShotLocked adds a transition-edge notification, replacing any
// previous notification with the same id so repeated transitions read as one
// fresh entry. Callers hold e.mu.
func (e *Engine) appendOneShotLocked(n models.Notification) {
	for i := range e.notifications {
		if e.notifications[i].ID == n.ID {
			e.notifications[i] = n
			return
		}
	}
	e.notifications = append(e.notifications, n)
}
