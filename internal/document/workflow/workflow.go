// Package workflow implements the document lifecycle rules as pure functions.
//
// User actions (submit, approve, reject, publish, archive) and time-driven
// recomputation (expiry) both live here so the engine and its tests share one
// source of truth for the state machine:
//
//	Draft ──submit──▶ Pending Approval ──approve──▶ Approved ──publish──▶ Published
//	  ▲                    │                            │                     │
//	  └──────reject────────┘                            │                     │
//	  └───────────────────────────archive───────────────┴─────────────────────┘
//
// Expired is an absorbing override applied by Recompute once the expiry
// condition holds; it is never a user action.
package workflow

import (
	"strings"
	"time"

	"complyline/internal/document/models"
	dErrors "complyline/pkg/domain-errors"
)

// Submit moves a draft into pending approval and stamps pendingSince.
func Submit(doc *models.Document, now time.Time) (*models.Document, error) {
	if err := guard(doc, models.StatusPendingApproval); err != nil {
		return nil, err
	}
	out := doc.Clone()
	out.Status = models.StatusPendingApproval
	out.PendingSince = &now
	out.UpdatedAt = now
	return out, nil
}

// Approve moves a pending document to approved. The comment is carried by the
// activity trail, not by the document itself.
func Approve(doc *models.Document, now time.Time) (*models.Document, error) {
	if err := guard(doc, models.StatusApproved); err != nil {
		return nil, err
	}
	out := doc.Clone()
	out.Status = models.StatusApproved
	out.PendingSince = nil
	out.UpdatedAt = now
	return out, nil
}

// Reject returns a pending document to draft. A non-blank reason is
// mandatory; it is surfaced through the rejection notification.
func Reject(doc *models.Document, reason string, now time.Time) (*models.Document, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if err := guard(doc, models.StatusDraft); err != nil {
		return nil, err
	}
	out := doc.Clone()
	out.Status = models.StatusDraft
	out.PendingSince = nil
	out.UpdatedAt = now
	return out, nil
}

// Publish moves an approved document to published. Publishing from any other
// status is a caller error, never silently coerced.
func Publish(doc *models.Document, now time.Time) (*models.Document, error) {
	if doc.Status != models.StatusApproved {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "document must be approved before publishing")
	}
	if err := guard(doc, models.StatusPublished); err != nil {
		return nil, err
	}
	out := doc.Clone()
	out.Status = models.StatusPublished
	out.UpdatedAt = now
	return out, nil
}

// Archive retires a document from any non-terminal status.
func Archive(doc *models.Document, now time.Time) (*models.Document, error) {
	if err := guard(doc, models.StatusArchived); err != nil {
		return nil, err
	}
	out := doc.Clone()
	out.Status = models.StatusArchived
	out.PendingSince = nil
	out.UpdatedAt = now
	return out, nil
}

// Recompute applies the time-driven expiry override. It is idempotent and
// leaves documents without an expiry date untouched. The returned bool
// reports whether the document changed; unchanged documents are returned
// as-is without cloning.
func Recompute(doc *models.Document, now time.Time) (*models.Document, bool) {
	if doc.ExpiryDate == nil || doc.Status == models.StatusExpired || doc.Status == models.StatusArchived {
		return doc, false
	}
	if !doc.HasExpired(now) {
		return doc, false
	}
	out := doc.Clone()
	out.Status = models.StatusExpired
	out.PendingSince = nil
	out.UpdatedAt = now
	return out, true
}

func guard(doc *models.Document, target models.DocumentStatus) error {
	if doc.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"document is "+strings.ToLower(string(doc.Status))+" and accepts no further actions")
	}
	if !doc.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move document from "+string(doc.Status)+" to "+string(target))
	}
	return nil
}
