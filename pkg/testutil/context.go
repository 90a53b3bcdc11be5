package testutil

import (
	"net/http"
	"time"

	"complyline/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context, simulating what the auth
// middleware does for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithRequestTime pins the request-scoped clock, the way the RequestTime
// middleware does, so assertions on timestamps are deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithAuth combines user identity and a pinned clock; the typical state for an
// authenticated request in handler tests.
func WithAuth(req *http.Request, userID string, now time.Time) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithTime(ctx, now)
	return req.WithContext(ctx)
}
