package engine

import (
	"context"
	"sort"

	"complyline/internal/activity"
	"complyline/internal/document/models"
	"complyline/internal/document/store"
)

// Store is the document store port. Aliased so engine tests can mock it
// without importing the store package's implementations.
type Store = store.Store

// Filter re-exports the store filter for callers going through the engine.
type Filter = store.Filter

// ActivityPublisher receives one event per completed workflow or CRUD
// action. Emission is fire-and-forget.
type ActivityPublisher interface {
	Emit(ctx context.Context, event activity.Event)
}

func sortByUpdatedAt(docs []*models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
}
