// Package request provides request-ID middleware. Every request gets a
// correlation id — either the caller's X-Request-ID or a fresh UUID — which
// flows through the context into audit records and logs.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"miecredit/pkg/requestcontext"
)

// HeaderRequestID is the header used to accept and echo correlation ids.
const HeaderRequestID = "X-Request-ID"

// Middleware ensures a request id is present in the context and echoed on
// the response so clients can correlate decisions with audit records.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
