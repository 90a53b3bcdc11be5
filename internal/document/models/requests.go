package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateDocumentRequest is the payload for registering a new document. Status
// is not accepted from callers; every document starts as Draft.
type CreateDocumentRequest struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	FileName     string           `json:"file_name"`
	FileSize     int64            `json:"file_size"`
	FileType     string           `json:"file_type"`
	Category     DocumentCategory `json:"category"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
	LinkedModule ModuleReference  `json:"linked_module,omitempty"`
	LinkedItemID string           `json:"linked_item_id,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
}

func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.Description, validation.Length(0, 4096)),
		validation.Field(&r.Category, validation.Required, validation.In(categoryValues()...)),
		validation.Field(&r.FileSize, validation.Min(0)),
	)
}

// UpdateDocumentRequest carries a partial edit; nil fields stay untouched.
type UpdateDocumentRequest struct {
	Title        *string           `json:"title,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Category     *DocumentCategory `json:"category,omitempty"`
	ExpiryDate   *time.Time        `json:"expiry_date,omitempty"`
	LinkedModule *ModuleReference  `json:"linked_module,omitempty"`
	LinkedItemID *string           `json:"linked_item_id,omitempty"`
	Tags         *[]string         `json:"tags,omitempty"`
}

func (r UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 256)),
		validation.Field(&r.Category, validation.In(categoryValues()...)),
	)
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r RejectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(1, 1024)),
	)
}

// ApproveRequest carries an optional approval comment.
type ApproveRequest struct {
	Comment string `json:"comment,omitempty"`
}

func categoryValues() []any {
	cats := Categories()
	values := make([]any, len(cats))
	for i, c := range cats {
		values[i] = c
	}
	return values
}

// Apply copies the non-nil fields of the request onto doc.
func (r UpdateDocumentRequest) Apply(doc *Document) {
	if r.Title != nil {
		doc.Title = *r.Title
	}
	if r.Description != nil {
		doc.Description = *r.Description
	}
	if r.Category != nil {
		doc.Category = *r.Category
	}
	if r.ExpiryDate != nil {
		doc.ExpiryDate = r.ExpiryDate
	}
	if r.LinkedModule != nil {
		doc.LinkedModule = *r.LinkedModule
	}
	if r.LinkedItemID != nil {
		doc.LinkedItemID = *r.LinkedItemID
	}
	if r.Tags != nil {
		doc.Tags = append([]string(nil), (*r.Tags)...)
	}
}
