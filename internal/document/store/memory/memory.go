// Package memory provides the in-memory document store used by unit tests
// and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"complyline/internal/document/models"
	"complyline/internal/document/store"
	"complyline/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	docs map[string]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[string]*models.Document)}
}

func (s *InMemory) List(_ context.Context, filter store.Filter) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if filter.Matches(doc) {
			out = append(out, doc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *InMemory) Create(_ context.Context, doc *models.Document) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if _, exists := s.docs[stored.ID]; exists {
		return nil, fmt.Errorf("%w: document %s", sentinel.ErrConflict, stored.ID)
	}
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.docs[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, doc *models.Document) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; !exists {
		return nil, fmt.Errorf("%w: document %s", sentinel.ErrNotFound, doc.ID)
	}
	stored := doc.Clone()
	s.docs[doc.ID] = stored
	return stored.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; !exists {
		return fmt.Errorf("%w: document %s", sentinel.ErrNotFound, id)
	}
	delete(s.docs, id)
	return nil
}
