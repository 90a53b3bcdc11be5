package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complyline/internal/document/models"
)

type NotifySuite struct {
	suite.Suite
	gen Generator
	now time.Time
}

func (s *NotifySuite) SetupTest() {
	s.gen = Generator{
		OverdueAfter:    72 * time.Hour,
		ExpiryLookahead: 30 * 24 * time.Hour,
	}
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestNotifySuite(t *testing.T) {
	suite.Run(t, new(NotifySuite))
}

func (s *NotifySuite) pending(id string, pendingFor time.Duration) *models.Document {
	since := s.now.Add(-pendingFor)
	return &models.Document{
		ID:           id,
		Title:        "Supplier Audit " + id,
		Status:       models.StatusPendingApproval,
		PendingSince: &since,
	}
}

func (s *NotifySuite) expiring(id string, in time.Duration) *models.Document {
	expiry := s.now.Add(in)
	return &models.Document{
		ID:         id,
		Title:      "Certificate " + id,
		Status:     models.StatusPublished,
		ExpiryDate: &expiry,
	}
}

func (s *NotifySuite) byID(notifications []models.Notification) map[string]models.Notification {
	out := make(map[string]models.Notification, len(notifications))
	for _, n := range notifications {
		out[n.ID] = n
	}
	return out
}

// =============================================================================
// Poll-Derived Rules
// =============================================================================

func (s *NotifySuite) TestApprovalNotifications() {
	s.Run("pending document inside the threshold raises a request", func() {
		out := s.gen.Generate([]*models.Document{s.pending("d1", 24*time.Hour)}, nil, s.now)
		s.Require().Len(out, 1)
		s.Equal(models.NotificationApprovalRequest, out[0].Type)
		s.Equal(models.NotificationID("d1", models.NotificationApprovalRequest), out[0].ID)
	})

	s.Run("pending document past the threshold escalates to overdue", func() {
		out := s.gen.Generate([]*models.Document{s.pending("d1", 73*time.Hour)}, nil, s.now)
		s.Require().Len(out, 1)
		s.Equal(models.NotificationApprovalOverdue, out[0].Type)
	})

	s.Run("exactly at the threshold stays a request", func() {
		out := s.gen.Generate([]*models.Document{s.pending("d1", 72*time.Hour)}, nil, s.now)
		s.Require().Len(out, 1)
		s.Equal(models.NotificationApprovalRequest, out[0].Type)
	})

	s.Run("non-pending documents raise nothing", func() {
		doc := s.pending("d1", 24*time.Hour)
		doc.Status = models.StatusDraft
		doc.PendingSince = nil
		out := s.gen.Generate([]*models.Document{doc}, nil, s.now)
		s.Empty(out)
	})
}

func (s *NotifySuite) TestExpiryReminders() {
	s.Run("document expiring inside the window raises a reminder", func() {
		out := s.gen.Generate([]*models.Document{s.expiring("d1", 10*24*time.Hour)}, nil, s.now)
		s.Require().Len(out, 1)
		s.Equal(models.NotificationExpiryReminder, out[0].Type)
	})

	s.Run("document expiring outside the window raises nothing", func() {
		out := s.gen.Generate([]*models.Document{s.expiring("d1", 45*24*time.Hour)}, nil, s.now)
		s.Empty(out)
	})

	s.Run("expired and archived documents raise no reminder", func() {
		for _, status := range []models.DocumentStatus{models.StatusExpired, models.StatusArchived} {
			doc := s.expiring("d1", 10*24*time.Hour)
			doc.Status = status
			out := s.gen.Generate([]*models.Document{doc}, nil, s.now)
			s.Empty(out, "status %s", status)
		}
	})

	s.Run("a document can carry both a request and a reminder", func() {
		doc := s.pending("d1", 24*time.Hour)
		expiry := s.now.Add(10 * 24 * time.Hour)
		doc.ExpiryDate = &expiry
		out := s.gen.Generate([]*models.Document{doc}, nil, s.now)
		s.Len(out, 2)
	})
}

// =============================================================================
// Read-State Preservation
// =============================================================================

func (s *NotifySuite) TestReadStateSurvivesRegeneration() {
	docs := []*models.Document{s.pending("d1", 24*time.Hour), s.pending("d2", 24*time.Hour)}

	first := s.gen.Generate(docs, nil, s.now)
	s.Require().Len(first, 2)

	// User reads d1's notification.
	for i := range first {
		if first[i].DocumentID == "d1" {
			first[i].IsRead = true
		}
	}

	second := s.gen.Generate(docs, first, s.now.Add(time.Minute))
	byID := s.byID(second)
	s.True(byID[models.NotificationID("d1", models.NotificationApprovalRequest)].IsRead)
	s.False(byID[models.NotificationID("d2", models.NotificationApprovalRequest)].IsRead)
}

func (s *NotifySuite) TestReadStateSurvivesEscalation() {
	// Escalation changes the notification id, so read state intentionally
	// resets: overdue is a new, louder condition.
	doc := s.pending("d1", 71*time.Hour)
	first := s.gen.Generate([]*models.Document{doc}, nil, s.now)
	s.Require().Len(first, 1)
	first[0].IsRead = true

	later := s.now.Add(2 * time.Hour)
	second := s.gen.Generate([]*models.Document{doc}, first, later)
	s.Require().Len(second, 1)
	s.Equal(models.NotificationApprovalOverdue, second[0].Type)
	s.False(second[0].IsRead)
}

func (s *NotifySuite) TestStaleNotificationsDropOut() {
	doc := s.pending("d1", 24*time.Hour)
	first := s.gen.Generate([]*models.Document{doc}, nil, s.now)
	s.Require().Len(first, 1)

	// Approval clears the pending condition.
	doc.Status = models.StatusApproved
	doc.PendingSince = nil
	second := s.gen.Generate([]*models.Document{doc}, first, s.now.Add(time.Minute))
	s.Empty(second)
}

// =============================================================================
// One-Shot Carry-Over
// =============================================================================

func (s *NotifySuite) TestOneShotCarryOver() {
	doc := &models.Document{ID: "d1", Title: "HACCP Plan 2025", Status: models.StatusApproved}
	oneShot := ApprovalComplete(doc, s.now)
	oneShot.IsRead = true

	s.Run("carried through while the document exists", func() {
		out := s.gen.Generate([]*models.Document{doc}, []models.Notification{oneShot}, s.now.Add(time.Minute))
		s.Require().Len(out, 1)
		s.Equal(models.NotificationApprovalComplete, out[0].Type)
		s.True(out[0].IsRead)
	})

	s.Run("dropped once the document is gone", func() {
		out := s.gen.Generate(nil, []models.Notification{oneShot}, s.now.Add(time.Minute))
		s.Empty(out)
	})
}

func (s *NotifySuite) TestDeterministicIDs() {
	doc := s.pending("d1", 24*time.Hour)
	first := s.gen.Generate([]*models.Document{doc}, nil, s.now)
	second := s.gen.Generate([]*models.Document{doc}, first, s.now.Add(time.Hour))
	s.Require().Len(first, 1)
	s.Require().Len(second, 1)
	s.Equal(first[0].ID, second[0].ID)
}
