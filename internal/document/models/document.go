package models

import (
	"time"
)

// DocumentCategory is the closed set of compliance artifact categories.
type DocumentCategory string

const (
	CategorySOP              DocumentCategory = "SOP"
	CategoryPolicy           DocumentCategory = "Policy"
	CategoryForm             DocumentCategory = "Form"
	CategoryCertificate      DocumentCategory = "Certificate"
	CategoryAuditReport      DocumentCategory = "Audit Report"
	CategoryHACCPPlan        DocumentCategory = "HACCP Plan"
	CategoryTrainingMaterial DocumentCategory = "Training Material"
	CategorySupplierDocs     DocumentCategory = "Supplier Documentation"
	CategoryRiskAssessment   DocumentCategory = "Risk Assessment"
	CategoryOther            DocumentCategory = "Other"
)

// Categories lists every valid category, in display order.
func Categories() []DocumentCategory {
	return []DocumentCategory{
		CategorySOP, CategoryPolicy, CategoryForm, CategoryCertificate,
		CategoryAuditReport, CategoryHACCPPlan, CategoryTrainingMaterial,
		CategorySupplierDocs, CategoryRiskAssessment, CategoryOther,
	}
}

// IsValid reports whether c is one of the closed enumeration values.
func (c DocumentCategory) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ModuleReference points a document at another subsystem's record.
type ModuleReference string

const (
	ModuleHACCP        ModuleReference = "haccp"
	ModuleTraining     ModuleReference = "training"
	ModuleAudits       ModuleReference = "audits"
	ModuleSuppliers    ModuleReference = "suppliers"
	ModuleCAPA         ModuleReference = "capa"
	ModuleTraceability ModuleReference = "traceability"
	ModuleNone         ModuleReference = "none"
)

// Document is the central compliance artifact tracked through the approval
// and publication workflow.
//
// Invariants:
//   - ID is immutable once created
//   - Version increments only through the editing workflow, never here
//   - Status == Expired iff ExpiryDate is set and in the past
//   - PendingSince is set exactly while Status == Pending Approval
//   - CreatedBy/CreatedAt are immutable; UpdatedAt moves on every mutation
type Document struct {
	ID          string           `json:"id" db:"id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description,omitempty" db:"description"`
	FileName    string           `json:"file_name" db:"file_name"`
	FileSize    int64            `json:"file_size" db:"file_size"`
	FileType    string           `json:"file_type" db:"file_type"`
	Category    DocumentCategory `json:"category" db:"category"`
	Status      DocumentStatus   `json:"status" db:"status"`
	Version     int              `json:"version" db:"version"`
	CreatedBy   string           `json:"created_by" db:"created_by"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty" db:"expiry_date"`
	// PendingSince records entry into Pending Approval; cleared on exit.
	PendingSince *time.Time      `json:"pending_since,omitempty" db:"pending_since"`
	LinkedModule ModuleReference `json:"linked_module,omitempty" db:"linked_module"`
	LinkedItemID string          `json:"linked_item_id,omitempty" db:"linked_item_id"`
	Tags         []string        `json:"tags,omitempty" db:"tags"`
	// IsLocked blocks further edits when set.
	IsLocked bool `json:"is_locked" db:"is_locked"`
}

// Clone returns a deep copy so callers can hand out read-only views without
// sharing mutable slices or pointers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.ExpiryDate != nil {
		t := *d.ExpiryDate
		out.ExpiryDate = &t
	}
	if d.PendingSince != nil {
		t := *d.PendingSince
		out.PendingSince = &t
	}
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	return &out
}

// HasExpired reports whether the expiry condition holds at the given time.
func (d *Document) HasExpired(now time.Time) bool {
	return d.ExpiryDate != nil && d.ExpiryDate.Before(now)
}

// ExpiresWithin reports whether the document has an expiry date inside the
// window [now, now+window).
func (d *Document) ExpiresWithin(now time.Time, window time.Duration) bool {
	if d.ExpiryDate == nil {
		return false
	}
	return d.ExpiryDate.After(now) && d.ExpiryDate.Before(now.Add(window))
}
