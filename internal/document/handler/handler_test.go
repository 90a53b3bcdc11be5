package handler

//go:generate mockgen -source=handler.go -destination=mocks/engine-mocks.go -package=mocks Engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"complyline/internal/document/handler/mocks"
	"complyline/internal/document/models"
	dErrors "complyline/pkg/domain-errors"
)

type DocumentHandlerSuite struct {
	suite.Suite
	handler *Handler
	engine  *mocks.MockEngine
}

func (s *DocumentHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.engine = mocks.NewMockEngine(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = New(s.engine, logger, nil, nil)
}

func TestDocumentHandlerSuite(t *testing.T) {
	suite.Run(t, new(DocumentHandlerSuite))
}

func (s *DocumentHandlerSuite) request(method, target string, body any, params map[string]string) *http.Request {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

func (s *DocumentHandlerSuite) sampleDoc(status models.DocumentStatus) *models.Document {
	return &models.Document{
		ID:        "d1",
		Title:     "Pest Control SOP",
		Category:  models.CategorySOP,
		Status:    status,
		Version:   1,
		UpdatedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (s *DocumentHandlerSuite) TestListDocuments() {
	s.engine.EXPECT().Documents().Return([]*models.Document{s.sampleDoc(models.StatusDraft)})

	w := httptest.NewRecorder()
	s.handler.handleList(w, s.request(http.MethodGet, "/documents", nil, nil))

	s.Equal(http.StatusOK, w.Code)
	var docs []models.Document
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &docs))
	s.Require().Len(docs, 1)
	s.Equal("d1", docs[0].ID)
	s.Equal(models.StatusDraft, docs[0].Status)
}

func (s *DocumentHandlerSuite) TestRefresh() {
	s.Run("returns the refreshed collection", func() {
		s.engine.EXPECT().Fetch(gomock.Any()).Return([]*models.Document{s.sampleDoc(models.StatusPublished)}, nil)

		w := httptest.NewRecorder()
		s.handler.handleRefresh(w, s.request(http.MethodPost, "/documents/refresh", nil, nil))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("maps store unavailability to 503", func() {
		s.engine.EXPECT().Fetch(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "failed to load documents"))

		w := httptest.NewRecorder()
		s.handler.handleRefresh(w, s.request(http.MethodPost, "/documents/refresh", nil, nil))
		s.Equal(http.StatusServiceUnavailable, w.Code)

		var resp map[string]string
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(string(dErrors.CodeUnavailable), resp["error"])
	})
}

func (s *DocumentHandlerSuite) TestCreate() {
	s.Run("returns 201 with the stored document", func() {
		s.engine.EXPECT().Create(gomock.Any(), gomock.Any()).Return(s.sampleDoc(models.StatusDraft), nil)

		req := s.request(http.MethodPost, "/documents", models.CreateDocumentRequest{
			Title:    "Pest Control SOP",
			Category: models.CategorySOP,
		}, nil)
		w := httptest.NewRecorder()
		s.handler.handleCreate(w, req)
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("rejects malformed JSON", func() {
		req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		s.handler.handleCreate(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("maps validation failure to 400", func() {
		s.engine.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "invalid document"))

		req := s.request(http.MethodPost, "/documents", models.CreateDocumentRequest{}, nil)
		w := httptest.NewRecorder()
		s.handler.handleCreate(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *DocumentHandlerSuite) TestWorkflowRoutes() {
	params := map[string]string{"id": "d1"}

	s.Run("submit", func() {
		s.engine.EXPECT().SubmitForApproval(gomock.Any(), "d1").
			Return(s.sampleDoc(models.StatusPendingApproval), nil)

		w := httptest.NewRecorder()
		s.handler.handleSubmit(w, s.request(http.MethodPost, "/documents/d1/submit", nil, params))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("approve passes the comment through", func() {
		s.engine.EXPECT().Approve(gomock.Any(), "d1", "ship it").
			Return(s.sampleDoc(models.StatusApproved), nil)

		req := s.request(http.MethodPost, "/documents/d1/approve", models.ApproveRequest{Comment: "ship it"}, params)
		w := httptest.NewRecorder()
		s.handler.handleApprove(w, req)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("reject requires a reason before reaching the engine", func() {
		req := s.request(http.MethodPost, "/documents/d1/reject", models.RejectRequest{}, params)
		w := httptest.NewRecorder()
		s.handler.handleReject(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("publish guard surfaces as 409", func() {
		s.engine.EXPECT().Publish(gomock.Any(), "d1").
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "document must be approved before publishing"))

		w := httptest.NewRecorder()
		s.handler.handlePublish(w, s.request(http.MethodPost, "/documents/d1/publish", nil, params))
		s.Equal(http.StatusConflict, w.Code)

		var resp map[string]string
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(string(dErrors.CodeInvalidTransition), resp["error"])
	})

	s.Run("unknown document surfaces as 404", func() {
		s.engine.EXPECT().Archive(gomock.Any(), "d1").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "document not found"))

		w := httptest.NewRecorder()
		s.handler.handleArchive(w, s.request(http.MethodPost, "/documents/d1/archive", nil, params))
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *DocumentHandlerSuite) TestNotificationsRoutes() {
	s.Run("lists notifications", func() {
		s.engine.EXPECT().Notifications().Return([]models.Notification{{
			ID:   models.NotificationID("d1", models.NotificationApprovalRequest),
			Type: models.NotificationApprovalRequest,
		}})

		w := httptest.NewRecorder()
		s.handler.handleNotifications(w, s.request(http.MethodGet, "/notifications", nil, nil))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("marks one read", func() {
		s.engine.EXPECT().MarkRead("d1:approval_request").Return(nil)

		params := map[string]string{"id": "d1:approval_request"}
		w := httptest.NewRecorder()
		s.handler.handleMarkRead(w, s.request(http.MethodPost, "/notifications/d1:approval_request/read", nil, params))
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("unknown notification surfaces as 404", func() {
		s.engine.EXPECT().MarkRead("ghost").
			Return(dErrors.New(dErrors.CodeNotFound, "notification not found"))

		params := map[string]string{"id": "ghost"}
		w := httptest.NewRecorder()
		s.handler.handleMarkRead(w, s.request(http.MethodPost, "/notifications/ghost/read", nil, params))
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("clears all", func() {
		s.engine.EXPECT().ClearAll()

		w := httptest.NewRecorder()
		s.handler.handleClearNotifications(w, s.request(http.MethodDelete, "/notifications", nil, nil))
		s.Equal(http.StatusNoContent, w.Code)
	})
}

func (s *DocumentHandlerSuite) TestStats() {
	s.engine.EXPECT().Stats().Return(models.Stats{TotalDocuments: 3, PendingApproval: 1})

	w := httptest.NewRecorder()
	s.handler.handleStats(w, s.request(http.MethodGet, "/documents/stats", nil, nil))
	s.Equal(http.StatusOK, w.Code)

	var stats models.Stats
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	s.Equal(3, stats.TotalDocuments)
}
