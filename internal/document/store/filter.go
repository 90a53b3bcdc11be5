package store

import (
	"strings"

	"complyline/internal/document/models"
)

func matchesSearch(doc *models.Document, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(doc.Title), term) ||
		strings.Contains(strings.ToLower(doc.Description), term)
}
