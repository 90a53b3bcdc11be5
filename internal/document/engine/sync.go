package engine

import (
	"context"
	"time"

	"complyline/internal/document/feed"
	"complyline/internal/document/models"
	"complyline/internal/document/workflow"
)

// run is the engine's synchronization loop: it consumes remote change events
// and fires the periodic recomputation sweep until Close cancels the context.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	var events <-chan feed.Event
	if e.subscriber != nil {
		events = e.subscriber.Events()
	}

	ticker := time.NewTicker(e.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				// Subscriber closed; keep ticking on local state only.
				events = nil
				continue
			}
			e.applyRemote(event)
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// applyRemote reconciles one change event into the collection under the
// last-write-wins rule: an event older than the record we hold is stale and
// is discarded, so out-of-order delivery cannot regress state.
func (e *Engine) applyRemote(event feed.Event) {
	id := event.DocumentID()
	if id == "" {
		e.logger.Warn("discarding change event without a document id", "event_type", event.Type)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	switch event.Type {
	case feed.EventDelete:
		// Deleting an unknown document is a no-op, not an error.
		delete(e.docs, id)
	case feed.EventInsert, feed.EventUpdate:
		if event.Doc == nil {
			e.logger.Warn("discarding change event without a record", "event_type", event.Type, "document_id", id)
			return
		}
		if held, ok := e.docs[id]; ok && held.UpdatedAt.After(event.Doc.UpdatedAt) {
			if e.metrics != nil {
				e.metrics.FeedEventsDiscarded.Inc()
			}
			e.logger.Debug("discarding stale change event",
				"document_id", id,
				"event_updated_at", event.Doc.UpdatedAt,
				"held_updated_at", held.UpdatedAt,
			)
			return
		}
		e.docs[id] = event.Doc.Clone()
	default:
		e.logger.Warn("discarding change event of unknown type", "event_type", event.Type)
		return
	}

	if e.metrics != nil {
		e.metrics.FeedEventsApplied.WithLabelValues(string(event.Type)).Inc()
	}
	e.regenerateLocked(e.now())
}

// tick runs one recomputation sweep: documents whose expiry has passed move
// to Expired, changed documents are persisted, and the notification list is
// rederived. A failed persist leaves the local record untouched so the same
// document is recomputed again next tick.
func (e *Engine) tick(ctx context.Context) {
	started := e.now()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	var changed []*models.Document
	for _, doc := range e.docs {
		if recomputed, ok := workflow.Recompute(doc, started); ok {
			changed = append(changed, recomputed)
		}
	}
	e.mu.Unlock()

	for _, doc := range changed {
		if _, err := e.store.Update(ctx, doc); err != nil {
			if e.metrics != nil {
				e.metrics.TickPersistFailures.Inc()
			}
			e.logger.Warn("failed to persist recomputed document, will retry next tick",
				"document_id", doc.ID,
				"error", err,
			)
			continue
		}
		e.applyRemote(feed.Updated(doc))
		if e.metrics != nil {
			e.metrics.DocumentsExpired.Inc()
		}
	}

	e.mu.Lock()
	if !e.closed {
		e.regenerateLocked(e.now())
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.TickDuration.Observe(e.now().Sub(started).Seconds())
	}
}
