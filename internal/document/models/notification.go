package models

import (
	"fmt"
	"time"
)

// NotificationType classifies user-facing document notifications.
type NotificationType string

const (
	NotificationApprovalRequest  NotificationType = "approval_request"
	NotificationApprovalOverdue  NotificationType = "approval_overdue"
	NotificationExpiryReminder   NotificationType = "expiry_reminder"
	NotificationApprovalComplete NotificationType = "approval_complete"
	NotificationRejected         NotificationType = "document_rejected"
)

// Notification is derived from the document collection, never persisted.
//
// Its ID is deterministic — document ID plus type — so regenerating the list
// on every tick cannot duplicate an entry for the same condition, and read
// state can be carried across regenerations by ID.
type Notification struct {
	ID            string           `json:"id"`
	DocumentID    string           `json:"document_id"`
	DocumentTitle string           `json:"document_title"`
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
	IsRead        bool             `json:"is_read"`
	// TargetUserIDs limits the audience; empty means all viewers with
	// permission.
	TargetUserIDs []string `json:"target_user_ids"`
}

// NotificationID builds the deterministic id for a document/type pair.
func NotificationID(documentID string, typ NotificationType) string {
	return fmt.Sprintf("%s:%s", documentID, typ)
}
