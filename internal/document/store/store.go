// Package store defines the document store client contract. The remote store
// is the system of record; the engine keeps its own in-memory view and
// reconciles through the change feed.
package store

import (
	"context"
	"time"

	"complyline/internal/document/models"
)

// Store is interface-driven to keep the engine testable and to allow swapping
// the in-memory implementation for the PostgreSQL one without rewiring
// business code.
//
// Implementations do not retry; retry policy belongs to the caller. Failures
// wrap sentinel.ErrUnavailable (transient) or sentinel.ErrNotFound.
type Store interface {
	// List returns the documents matching filter, newest update first.
	List(ctx context.Context, filter Filter) ([]*models.Document, error)
	// Create persists a new document, assigning ID, CreatedAt, UpdatedAt, and
	// Version=1 when absent from the input. Returns the stored record.
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	// Update overwrites the stored record (last write wins). Returns the
	// stored record.
	Update(ctx context.Context, doc *models.Document) (*models.Document, error)
	// Delete removes the record.
	Delete(ctx context.Context, id string) error
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Categories     []models.DocumentCategory
	Statuses       []models.DocumentStatus
	CreatedBy      string
	ExpiringBefore *time.Time
	// Search matches case-insensitively against title and description.
	Search string
}

// Matches reports whether doc satisfies the filter. Shared by the in-memory
// store and by tests asserting against the postgres implementation.
func (f Filter) Matches(doc *models.Document) bool {
	if len(f.Categories) > 0 && !containsCategory(f.Categories, doc.Category) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, doc.Status) {
		return false
	}
	if f.CreatedBy != "" && doc.CreatedBy != f.CreatedBy {
		return false
	}
	if f.ExpiringBefore != nil {
		if doc.ExpiryDate == nil || doc.ExpiryDate.After(*f.ExpiringBefore) {
			return false
		}
	}
	if f.Search != "" && !matchesSearch(doc, f.Search) {
		return false
	}
	return true
}

func containsCategory(haystack []models.DocumentCategory, needle models.DocumentCategory) bool {
	for _, c := range haystack {
		if c == needle {
			return true
		}
	}
	return false
}

func containsStatus(haystack []models.DocumentStatus, needle models.DocumentStatus) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
