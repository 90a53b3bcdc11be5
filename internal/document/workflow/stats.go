package workflow

import (
	"time"

	"complyline/internal/document/models"
)

// Stats summarizes a document collection for the dashboard. The lookahead
// window controls what counts as expiring soon; archived and expired
// documents never do.
func Stats(docs []*models.Document, now time.Time, lookahead time.Duration) models.Stats {
	stats := models.Stats{ByCategory: make(map[models.DocumentCategory]int)}
	for _, doc := range docs {
		stats.TotalDocuments++
		stats.ByCategory[doc.Category]++
		switch doc.Status {
		case models.StatusPendingApproval:
			stats.PendingApproval++
		case models.StatusExpired:
			stats.Expired++
		case models.StatusPublished:
			stats.Published++
		case models.StatusArchived:
			stats.Archived++
		}
		if doc.Status != models.StatusExpired && doc.Status != models.StatusArchived &&
			doc.ExpiresWithin(now, lookahead) {
			stats.ExpiringSoon++
		}
	}
	return stats
}
