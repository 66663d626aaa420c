// Package apikey gates API routes behind a static key. Intended for
// single-operator deployments; anything multi-party should front this
// service with a real identity layer.
package apikey

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "miecredit/pkg/domain-errors"
	"miecredit/pkg/platform/httputil"
	"miecredit/pkg/requestcontext"
)

// HeaderAPIKey carries the caller's key.
const HeaderAPIKey = "X-API-Key"

// Require enforces a constant-time match on the X-API-Key header.
func Require(expectedKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderAPIKey)
			// Constant-time comparison to prevent timing attacks.
			if subtle.ConstantTimeCompare([]byte(key), []byte(expectedKey)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "api key mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "api key required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
