// Package notify derives the user-facing notification list from the document
// collection.
//
// Poll-derived notifications (approval_request, approval_overdue,
// expiry_reminder) are regenerated from scratch on every tick; read state
// survives regeneration because ids are deterministic per document and type.
// One-shot notifications (approval_complete, document_rejected) mark edges,
// not states, so the engine appends them at transition time instead.
package notify

import (
	"fmt"
	"time"

	"complyline/internal/document/models"
)

// Generator evaluates the poll-derived notification rules.
type Generator struct {
	// OverdueAfter is how long a document may wait in pending approval before
	// its request escalates to overdue.
	OverdueAfter time.Duration
	// ExpiryLookahead is the reminder window ahead of expiry.
	ExpiryLookahead time.Duration
}

// Generate returns the poll-derived notifications for docs, preserving read
// state from previous for any notification whose deterministic id already
// exists. Conditions that no longer hold simply produce nothing, so stale
// entries drop out. One-shot notifications present in previous are carried
// through unchanged as long as their document still exists.
func (g Generator) Generate(docs []*models.Document, previous []models.Notification, now time.Time) []models.Notification {
	readByID := make(map[string]bool, len(previous))
	for _, n := range previous {
		readByID[n.ID] = n.IsRead
	}
	docIDs := make(map[string]struct{}, len(docs))

	var out []models.Notification
	add := func(n models.Notification) {
		n.IsRead = readByID[n.ID]
		out = append(out, n)
	}

	for _, doc := range docs {
		docIDs[doc.ID] = struct{}{}

		if doc.Status == models.StatusPendingApproval && doc.PendingSince != nil {
			if now.Sub(*doc.PendingSince) > g.OverdueAfter {
				add(models.Notification{
					ID:            models.NotificationID(doc.ID, models.NotificationApprovalOverdue),
					DocumentID:    doc.ID,
					DocumentTitle: doc.Title,
					Type:          models.NotificationApprovalOverdue,
					Message:       fmt.Sprintf("Approval for %q is overdue", doc.Title),
					CreatedAt:     now,
					TargetUserIDs: []string{},
				})
			} else {
				add(models.Notification{
					ID:            models.NotificationID(doc.ID, models.NotificationApprovalRequest),
					DocumentID:    doc.ID,
					DocumentTitle: doc.Title,
					Type:          models.NotificationApprovalRequest,
					Message:       fmt.Sprintf("New approval request for %q", doc.Title),
					CreatedAt:     now,
					TargetUserIDs: []string{},
				})
			}
		}

		if doc.Status != models.StatusExpired && doc.Status != models.StatusArchived &&
			doc.ExpiresWithin(now, g.ExpiryLookahead) {
			add(models.Notification{
				ID:            models.NotificationID(doc.ID, models.NotificationExpiryReminder),
				DocumentID:    doc.ID,
				DocumentTitle: doc.Title,
				Type:          models.NotificationExpiryReminder,
				Message:       fmt.Sprintf("%q expires on %s", doc.Title, doc.ExpiryDate.Format("2006-01-02")),
				CreatedAt:     now,
				TargetUserIDs: []string{},
			})
		}
	}

	// One-shot notifications survive regeneration until their document goes
	// away or the user clears them.
	generated := make(map[string]struct{}, len(out))
	for _, n := range out {
		generated[n.ID] = struct{}{}
	}
	for _, n := range previous {
		if n.Type != models.NotificationApprovalComplete && n.Type != models.NotificationRejected {
			continue
		}
		if _, ok := docIDs[n.DocumentID]; !ok {
			continue
		}
		if _, dup := generated[n.ID]; dup {
			continue
		}
		out = append(out, n)
	}

	return out
}

// ApprovalRequested builds the one-shot notification emitted when a document
// is submitted for approval.
func ApprovalRequested(doc *models.Document, now time.Time) models.Notification {
	return models.Notification{
		ID:            models.NotificationID(doc.ID, models.NotificationApprovalRequest),
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Type:          models.NotificationApprovalRequest,
		Message:       fmt.Sprintf("New approval request for %q", doc.Title),
		CreatedAt:     now,
		TargetUserIDs: []string{},
	}
}

// ApprovalComplete builds the one-shot notification emitted on approval.
func ApprovalComplete(doc *models.Document, now time.Time) models.Notification {
	return models.Notification{
		ID:            models.NotificationID(doc.ID, models.NotificationApprovalComplete),
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Type:          models.NotificationApprovalComplete,
		Message:       fmt.Sprintf("%q has been approved", doc.Title),
		CreatedAt:     now,
		TargetUserIDs: []string{},
	}
}

// Rejected builds the one-shot notification emitted on rejection, carrying
// the reason.
func Rejected(doc *models.Document, reason string, now time.Time) models.Notification {
	return models.Notification{
		ID:            models.NotificationID(doc.ID, models.NotificationRejected),
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Type:          models.NotificationRejected,
		Message:       fmt.Sprintf("%q was rejected: %s", doc.Title, reason),
		CreatedAt:     now,
		TargetUserIDs: []string{},
	}
}
