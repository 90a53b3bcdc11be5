package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"complyline/internal/activity"
	"complyline/internal/document/models"
	"complyline/internal/document/notify"
	"complyline/internal/document/workflow"
	dErrors "complyline/pkg/domain-errors"
	"complyline/pkg/platform/sentinel"
	pstrings "complyline/pkg/platform/strings"
	"complyline/pkg/requestcontext"
)

// Fetch loads the baseline collection from the store, replacing the
// in-memory view, and derives the initial notification list. A failed fetch
// surfaces a recoverable error; Retry re-invokes it.
func (e *Engine) Fetch(ctx context.Context) ([]*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Fetch")
	defer span.End()

	docs, err := e.store.List(ctx, Filter{})
	if err != nil {
		return nil, translateStoreErr(err, "failed to load documents")
	}

	now := requestcontext.Now(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, dErrors.New(dErrors.CodeUnavailable, "engine is closed")
	}
	e.docs = make(map[string]*models.Document, len(docs))
	for _, doc := range docs {
		e.docs[doc.ID] = doc.Clone()
	}
	e.regenerateLocked(now)
	return e.snapshotLocked(), nil
}

// Retry is a plain re-invocation of Fetch, named for the recoverable error
// path it serves.
func (e *Engine) Retry(ctx context.Context) ([]*models.Document, error) {
	return e.Fetch(ctx)
}

// SubmitForApproval moves a draft into pending approval and raises the
// approval_request notification.
func (e *Engine) SubmitForApproval(ctx context.Context, id string) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.SubmitForApproval")
	defer span.End()
	now := requestcontext.Now(ctx)
	return e.transition(ctx, id, activity.ActionSubmitted, "",
		func(doc *models.Document) (*models.Document, error) {
			return workflow.Submit(doc, now)
		},
		func(doc *models.Document) *models.Notification {
			n := notify.ApprovalRequested(doc, now)
			return &n
		})
}

// Approve moves a pending document to approved and raises the
// approval_complete notification. The comment lands in the activity trail.
func (e *Engine) Approve(ctx context.Context, id, comment string) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Approve")
	defer span.End()
	now := requestcontext.Now(ctx)
	return e.transition(ctx, id, activity.ActionApproved, comment,
		func(doc *models.Document) (*models.Document, error) {
			return workflow.Approve(doc, now)
		},
		func(doc *models.Document) *models.Notification {
			n := notify.ApprovalComplete(doc, now)
			return &n
		})
}

// Reject returns a pending document to draft. The reason is mandatory and is
// carried by the document_rejected notification.
func (e *Engine) Reject(ctx context.Context, id, reason string) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Reject")
	defer span.End()
	now := requestcontext.Now(ctx)
	return e.transition(ctx, id, activity.ActionRejected, reason,
		func(doc *models.Document) (*models.Document, error) {
			return workflow.Reject(doc, reason, now)
		},
		func(doc *models.Document) *models.Notification {
			n := notify.Rejected(doc, reason, now)
			return &n
		})
}

// Publish moves an approved document to published. Publishing anything else
// fails the workflow guard.
func (e *Engine) Publish(ctx context.Context, id string) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Publish")
	defer span.End()
	now := requestcontext.Now(ctx)
	return e.transition(ctx, id, activity.ActionPublished, "",
		func(doc *models.Document) (*models.Document, error) {
			return workflow.Publish(doc, now)
		}, nil)
}

// Archive retires a document from any non-terminal status.
func (e *Engine) Archive(ctx context.Context, id string) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Archive")
	defer span.End()
	now := requestcontext.Now(ctx)
	return e.transition(ctx, id, activity.ActionArchived, "",
		func(doc *models.Document) (*models.Document, error) {
			return workflow.Archive(doc, now)
		}, nil)
}

// transition runs one workflow action: guard check, optimistic local apply,
// store persistence, and rollback on failure. The guard runs before any
// local mutation, so guard failures need no rollback.
func (e *Engine) transition(
	ctx context.Context,
	id string,
	action activity.Action,
	comment string,
	apply func(*models.Document) (*models.Document, error),
	oneShot func(*models.Document) *models.Notification,
) (*models.Document, error) {
	now := requestcontext.Now(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeUnavailable, "engine is closed")
	}
	prev, ok := e.docs[id]
	if !ok {
		e.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	updated, err := apply(prev)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}

	// Optimistic apply for responsiveness; the snapshot restores it on
	// store failure.
	snapshot := prev
	prevNotifications := append([]models.Notification(nil), e.notifications...)
	e.docs[id] = updated
	if oneShot != nil {
		e.appendOneShotLocked(*oneShot(updated))
	}
	e.mu.Unlock()

	if _, err := e.store.Update(ctx, updated); err != nil {
		e.rollback(id, updated, snapshot, prevNotifications)
		return nil, translateStoreErr(err, "failed to persist document")
	}

	e.activity.Emit(ctx, activity.Event{
		DocumentID:    updated.ID,
		DocumentTitle: updated.Title,
		Action:        action,
		Timestamp:     now,
		UserID:        requestcontext.UserID(ctx),
		Comment:       comment,
	})
	return updated.Clone(), nil
}

// Create registers a new document as Draft, optimistically inserting it
// before the store confirms.
func (e *Engine) Create(ctx context.Context, req models.CreateDocumentRequest) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid document")
	}

	now := requestcontext.Now(ctx)
	doc := &models.Document{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		FileType:     req.FileType,
		Category:     req.Category,
		Status:       models.StatusDraft,
		Version:      1,
		CreatedBy:    requestcontext.UserID(ctx),
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiryDate:   req.ExpiryDate,
		LinkedModule: req.LinkedModule,
		LinkedItemID: req.LinkedItemID,
		Tags:         pstrings.DedupeAndTrim(req.Tags),
	}

	optimistic := doc.Clone()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeUnavailable, "engine is closed")
	}
	e.docs[doc.ID] = optimistic
	e.mu.Unlock()

	stored, err := e.store.Create(ctx, doc)
	if err != nil {
		e.evict(doc.ID, optimistic)
		return nil, translateStoreErr(err, "failed to create document")
	}

	e.mu.Lock()
	if !e.closed {
		e.docs[stored.ID] = stored.Clone()
	}
	e.mu.Unlock()

	e.activity.Emit(ctx, activity.Event{
		DocumentID:    stored.ID,
		DocumentTitle: stored.Title,
		Action:        activity.ActionCreated,
		Timestamp:     now,
		UserID:        requestcontext.UserID(ctx),
	})
	return stored.Clone(), nil
}

// Update applies a partial edit to a document. Unknown ids and locked
// documents are caller errors.
func (e *Engine) Update(ctx context.Context, id string, req models.UpdateDocumentRequest) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Update")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid document update")
	}

	now := requestcontext.Now(ctx)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeUnavailable, "engine is closed")
	}
	prev, ok := e.docs[id]
	if !ok {
		e.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if prev.IsLocked {
		e.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeConflict, "document is locked against edits")
	}
	updated := prev.Clone()
	req.Apply(updated)
	updated.Tags = pstrings.DedupeAndTrim(updated.Tags)
	updated.UpdatedAt = now
	snapshot := prev
	e.docs[id] = updated
	e.mu.Unlock()

	if _, err := e.store.Update(ctx, updated); err != nil {
		e.rollback(id, updated, snapshot, nil)
		return nil, translateStoreErr(err, "failed to update document")
	}

	e.activity.Emit(ctx, activity.Event{
		DocumentID:    updated.ID,
		DocumentTitle: updated.Title,
		Action:        activity.ActionEdited,
		Timestamp:     now,
		UserID:        requestcontext.UserID(ctx),
	})
	return updated.Clone(), nil
}

// Delete removes a document. Memory is evicted optimistically and restored
// when the store delete fails, unless a remote insert already refilled the
// slot.
func (e *Engine) Delete(ctx context.Context, id string) error {
	ctx, span := e.tracer.Start(ctx, "engine.Delete")
	defer span.End()

	now := requestcontext.Now(ctx)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return dErrors.New(dErrors.CodeUnavailable, "engine is closed")
	}
	prev, ok := e.docs[id]
	if !ok {
		e.mu.Unlock()
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if prev.IsLocked {
		e.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "document is locked against edits")
	}
	title := prev.Title
	delete(e.docs, id)
	e.mu.Unlock()

	if err := e.store.Delete(ctx, id); err != nil {
		e.restore(id, prev)
		return translateStoreErr(err, "failed to delete document")
	}

	e.activity.Emit(ctx, activity.Event{
		DocumentID:    id,
		DocumentTitle: title,
		Action:        activity.ActionDeleted,
		Timestamp:     now,
		UserID:        requestcontext.UserID(ctx),
	})
	return nil
}

// rollback restores the pre-mutation snapshot unless a newer write (remote
// event or later operation) already replaced the optimistic record.
func (e *Engine) rollback(id string, optimistic, snapshot *models.Document, prevNotifications []models.Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if held, ok := e.docs[id]; ok && held == optimistic {
		e.docs[id] = snapshot
	}
	if prevNotifications != nil {
		e.notifications = prevNotifications
	}
}

// evict removes an optimistically created document after a failed store
// create, unless a remote event superseded it.
func (e *Engine) evict(id string, optimistic *models.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if held, ok := e.docs[id]; ok && held == optimistic {
		delete(e.docs, id)
	}
}

// restore puts back a document removed by an optimistic delete.
func (e *Engine) restore(id string, snapshot *models.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if _, ok := e.docs[id]; !ok {
		e.docs[id] = snapshot
	}
}

func translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
