// Package handler exposes the document lifecycle engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"complyline/internal/document/models"
	"complyline/internal/platform/metrics"
	"complyline/internal/platform/middleware"
	"complyline/internal/transport/http/shared"
	dErrors "complyline/pkg/domain-errors"
	"complyline/pkg/requestcontext"
)

// Engine is the document lifecycle surface the handler drives.
type Engine interface {
	Fetch(ctx context.Context) ([]*models.Document, error)
	Documents() []*models.Document
	Stats() models.Stats
	Create(ctx context.Context, req models.CreateDocumentRequest) (*models.Document, error)
	Update(ctx context.Context, id string, req models.UpdateDocumentRequest) (*models.Document, error)
	Delete(ctx context.Context, id string) error
	SubmitForApproval(ctx context.Context, id string) (*models.Document, error)
	Approve(ctx context.Context, id, comment string) (*models.Document, error)
	Reject(ctx context.Context, id, reason string) (*models.Document, error)
	Publish(ctx context.Context, id string) (*models.Document, error)
	Archive(ctx context.Context, id string) (*models.Document, error)
	Notifications() []models.Notification
	MarkRead(id string) error
	ClearAll()
}

// Handler handles document and notification endpoints.
type Handler struct {
	engine       Engine
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a document Handler.
func New(engine Engine, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		engine:       engine,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the document routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	docRouter := chi.NewRouter()
	docRouter.Use(middleware.Recovery(h.logger))
	docRouter.Use(middleware.RequestID)
	docRouter.Use(middleware.RequestTime)
	docRouter.Use(middleware.Logger(h.logger))
	docRouter.Use(middleware.ContentTypeJSON)
	docRouter.Use(middleware.Latency(h.metrics))
	docRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	docRouter.Get("/documents", h.handleList)
	docRouter.Post("/documents", h.handleCreate)
	docRouter.Post("/documents/refresh", h.handleRefresh)
	docRouter.Get("/documents/stats", h.handleStats)
	docRouter.Put("/documents/{id}", h.handleUpdate)
	docRouter.Delete("/documents/{id}", h.handleDelete)
	docRouter.Post("/documents/{id}/submit", h.handleSubmit)
	docRouter.Post("/documents/{id}/approve", h.handleApprove)
	docRouter.Post("/documents/{id}/reject", h.handleReject)
	docRouter.Post("/documents/{id}/publish", h.handlePublish)
	docRouter.Post("/documents/{id}/archive", h.handleArchive)

	docRouter.Get("/notifications", h.handleNotifications)
	docRouter.Post("/notifications/{id}/read", h.handleMarkRead)
	docRouter.Delete("/notifications", h.handleClearNotifications)

	r.Mount("/", docRouter)
}

// handleList serves the in-memory collection; it never touches the store.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.engine.Documents())
}

// handleRefresh reloads the collection from the store. The UI calls it for
// its initial load and for the retry button on a failed load.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.engine.Fetch(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to refresh documents",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.engine.Stats())
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doc, err := h.engine.Create(ctx, req)
	if err != nil {
		h.logError(ctx, "failed to create document", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doc, err := h.engine.Update(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		h.logError(ctx, "failed to update document", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.engine.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.logError(ctx, "failed to delete document", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.SubmitForApproval)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.ApproveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}
	doc, err := h.engine.Approve(ctx, chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		h.logError(ctx, "failed to approve document", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "rejection requires a reason"))
		return
	}
	doc, err := h.engine.Reject(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.logError(ctx, "failed to reject document", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.Publish)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.Archive)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*models.Document, error)) {
	ctx := r.Context()
	doc, err := op(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logError(ctx, "workflow transition failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.engine.Notifications())
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.MarkRead(chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	log := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == dErrors.CodeUnavailable {
		log = h.logger.ErrorContext
	}
	log(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

// Healthz reports process liveness plus downstream reachability.
type Healthz struct {
	Checks map[string]func(ctx context.Context) error
}

// Register mounts the health endpoint without the auth chain.
func (hz *Healthz) Register(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		result := make(map[string]string, len(hz.Checks))
		for name, check := range hz.Checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		shared.WriteJSON(w, status, result)
	})
}
