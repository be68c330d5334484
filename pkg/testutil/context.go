package testutil

import (
	"net/http"
	"time"

	"consentledger/pkg/requestcontext"
)

// WithUserID attributes the request to a user, simulating what the
// attribution middleware would do for an authenticated request.
func WithUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithCorrelationID pins a correlation ID on the request context.
func WithCorrelationID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithCorrelationID(req.Context(), id))
}

// WithTime pins the evaluation instant on the request context so
// time-sensitive assertions are deterministic.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
