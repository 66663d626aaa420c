// Package handler exposes the audit trail query surface over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"miecredit/internal/audit"
	dErrors "miecredit/pkg/domain-errors"
	"miecredit/pkg/platform/httputil"
	"miecredit/pkg/requestcontext"
)

// Handler wires audit query endpoints to the recorder.
type Handler struct {
	recorder *audit.Recorder
	logger   *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(recorder *audit.Recorder, logger *slog.Logger) *Handler {
	return &Handler{recorder: recorder, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.HandleList)
	r.Get("/audit/events/{id}", h.HandleGet)
}

// HandleList handles GET /v1/audit/events requests. The reported limit and
// offset are the clamped values actually applied, so callers can page
// reliably.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	total, err := h.recorder.Count(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit count failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	events, err := h.recorder.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Total:  total,
		Limit:  filter.ClampedLimit(),
		Offset: filter.ClampedOffset(),
		Events: toRecords(events),
	})
}

// HandleGet handles GET /v1/audit/events/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "event id must be an integer"))
		return
	}

	stored, err := h.recorder.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecord(stored))
}

func filterFromQuery(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	filter := audit.Filter{
		Limit:        100,
		RequestID:    q.Get("request_id"),
		EventType:    q.Get("event_type"),
		SubjectID:    q.Get("applicant_id"),
		ModelVersion: q.Get("model_version"),
	}

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer")
		}
		filter.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "offset must be an integer")
		}
		filter.Offset = v
	}
	if raw := q.Get("since_ts"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "since_ts must be a number")
		}
		filter.SinceTS = &v
	}
	if raw := q.Get("until_ts"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "until_ts must be a number")
		}
		filter.UntilTS = &v
	}
	return filter, nil
}
