// Package handler exposes the model registry listing over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"miecredit/internal/registry"
	"miecredit/pkg/platform/httputil"
)

// Handler serves read-only registry views. Approval stays a CLI operation;
// the API never mutates governance state.
type Handler struct {
	registryDir   string
	activeVersion string
	logger        *slog.Logger
}

// New constructs a registry handler.
func New(registryDir, activeVersion string, logger *slog.Logger) *Handler {
	return &Handler{
		registryDir:   registryDir,
		activeVersion: activeVersion,
		logger:        logger,
	}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/models", h.HandleList)
}

type listResponse struct {
	RegistryDir        string             `json:"registry_dir"`
	ActiveModelVersion string             `json:"active_model_version"`
	Models             []registry.Summary `json:"models"`
}

// HandleList handles GET /v1/models requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	models, err := registry.ListModels(h.registryDir)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "registry scan failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if models == nil {
		models = []registry.Summary{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		RegistryDir:        h.registryDir,
		ActiveModelVersion: h.activeVersion,
		Models:             models,
	})
}
