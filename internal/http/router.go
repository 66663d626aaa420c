// Package httpapi assembles the HTTP surface: middleware, versioned API
// routes, health, and metrics.
package httpapi

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"miecredit/internal/audit"
	audithandler "miecredit/internal/audit/handler"
	"miecredit/internal/decision"
	decisionhandler "miecredit/internal/decision/handler"
	"miecredit/internal/platform/config"
	registryhandler "miecredit/internal/registry/handler"
	"miecredit/pkg/platform/httputil"
	"miecredit/pkg/platform/middleware/apikey"
	"miecredit/pkg/platform/middleware/request"
	"miecredit/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router needs.
type Deps struct {
	Config   config.Config
	Logger   *slog.Logger
	Decision *decision.Service
	Recorder *audit.Recorder
}

// NewRouter wires all public endpoints. Health and metrics are always open;
// the /v1 API is behind the API key when one is required.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/health", healthHandler(d))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		if d.Config.RequireAPIKey {
			api.Use(apikey.Require(d.Config.APIKey, d.Logger))
		}

		decisionhandler.New(d.Decision, d.Logger).Register(api)
		audithandler.New(d.Recorder, d.Logger).Register(api)
		registryhandler.New(d.Config.ModelRegistryDir, d.Config.ModelVersion, d.Logger).Register(api)
	})

	return r
}

func healthHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"status":        "ok",
			"environment":   d.Config.Environment,
			"model_version": d.Config.ModelVersion,
			"model_loaded":  d.Decision.ActiveModel() != nil,
		}
		if redactor := d.Recorder.Redactor(); redactor != nil {
			body["audit_redaction"] = redactionSummary(redactor)
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}
}

func redactionSummary(r *audit.Redactor) map[string]any {
	policy := r.Policy()
	allowed := make([]string, 0, len(policy.AllowPayloadKeys))
	for key := range policy.AllowPayloadKeys {
		allowed = append(allowed, key)
	}
	sort.Strings(allowed)
	return map[string]any{
		"allow_payload_keys":  allowed,
		"hash_applicant_id":   policy.HashSubjectID,
		"remove_applicant_id": policy.RemoveSubjectID,
	}
}
