package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"complyline/internal/document/handler/mocks"
	"complyline/internal/document/models"
	"complyline/internal/platform/middleware"
	"complyline/pkg/testutil"
)

// stubValidator accepts one fixed token and maps it to a fixed user.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != "valid-token" {
		return nil, assert.AnError
	}
	return &middleware.JWTClaims{UserID: "user-1", Role: "quality_manager"}, nil
}

func newRoutedHandler(t *testing.T) (http.Handler, *mocks.MockEngine) {
	t.Helper()
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(engine, logger, nil, stubValidator{}).Register(r)
	return r, engine
}

// TestRoutedRequests drives requests through the full middleware chain the
// way a real client would, rather than calling handler methods directly.
func TestRoutedRequests(t *testing.T) {
	t.Run("rejects requests without a bearer token", func(t *testing.T) {
		router, _ := newRoutedHandler(t)
		req := testutil.NewRequest(t, http.MethodGet, "/documents")

		rr := testutil.DoRequest(router, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("serves the collection to an authenticated client", func(t *testing.T) {
		router, engine := newRoutedHandler(t)
		engine.EXPECT().Documents().Return([]*models.Document{{ID: "d1", Title: "Routed"}})

		req := testutil.NewRequest(t, http.MethodGet, "/documents")
		req.Header.Set("Authorization", "Bearer valid-token")

		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Routed")
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("routes workflow actions with path parameters", func(t *testing.T) {
		router, engine := newRoutedHandler(t)
		engine.EXPECT().SubmitForApproval(gomock.Any(), "d1").
			Return(&models.Document{ID: "d1", Status: models.StatusPendingApproval}, nil)

		req := testutil.NewRequest(t, http.MethodPost, "/documents/d1/submit")
		req.Header.Set("Authorization", "Bearer valid-token")

		rr := testutil.DoRequest(router, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects non-JSON bodies on mutating routes", func(t *testing.T) {
		router, _ := newRoutedHandler(t)
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/documents", `{}`)
		req.Header.Set("Authorization", "Bearer valid-token")
		req.Header.Set("Content-Type", "text/plain")

		rr := testutil.DoRequest(router, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	})
}
