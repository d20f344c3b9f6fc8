// Package middleware holds HTTP middleware shared across routers.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"tributo/pkg/requestcontext"
)

// RequestIDHeader carries the caller-supplied correlation ID. A missing or
// empty header gets a fresh UUID.
const RequestIDHeader = "X-Request-ID"

// RequestID stamps every request with a correlation ID, exposes it to
// services through the request context, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
