package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"miecredit/internal/decision"
	"miecredit/pkg/platform/httputil"
	"miecredit/pkg/requestcontext"
)

// Service defines the decision operations the handler exposes.
type Service interface {
	Score(ctx context.Context, req decision.ScoreRequest) (decision.ScoreResult, error)
	Explain(ctx context.Context, req decision.ScoreRequest) (decision.ExplainResult, error)
	Fairness(ctx context.Context, rows []decision.FairnessRow, positiveLabel int) (decision.FairnessReport, error)
}

// Handler wires scoring, explanation, and fairness endpoints to the
// decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/score", h.HandleScore)
	r.Post("/explain", h.HandleExplain)
	r.Post("/audit/fairness", h.HandleFairness)
}

// HandleScore handles POST /v1/score requests.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ScoreRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Score(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "scoring failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "score served",
		"request_id", requestID,
		"decision", result.Decision,
		"model_version", result.ModelVersion,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromScoreResult(result))
}

// HandleExplain handles POST /v1/explain requests.
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ExplainRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Explain(ctx, decision.ScoreRequest{
		ApplicantID: req.ApplicantID,
		Features:    req.Features,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "explanation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromExplainResult(result))
}

// HandleFairness handles POST /v1/audit/fairness requests.
func (h *Handler) HandleFairness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FairnessRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.service.Fairness(ctx, req.DomainRows(), req.Positive())
	if err != nil {
		h.logger.ErrorContext(ctx, "fairness report failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fairness report served",
		"request_id", requestID,
		"rows", len(req.Rows),
	)
	httputil.WriteJSON(w, http.StatusOK, fromFairnessReport(report))
}
