// Package decision orchestrates credit-eligibility evaluation: it runs the
// approved model over validated features, derives decisions and
// explanations, computes fairness reports, and records an audit event for
// every outcome it produces.
package decision

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"miecredit/internal/audit"
	"miecredit/internal/decision/metrics"
	"miecredit/internal/modeling"
	"miecredit/internal/registry"
	dErrors "miecredit/pkg/domain-errors"
	"miecredit/pkg/requestcontext"
)

// Config carries the decision-path knobs resolved at startup.
type Config struct {
	// ApprovalThreshold is the score at or above which an applicant is
	// approved.
	ApprovalThreshold float64
	// LogRequestBodies controls whether raw feature vectors are attached to
	// audit payloads. Off by default; the redaction allowlist drops them
	// unless explicitly allowed.
	LogRequestBodies bool
}

// Service evaluates applicants against the active model package. The model
// is swapped atomically via Reload; a Service with no loaded model still
// serves fairness reports and rejects scoring with an unavailable error.
type Service struct {
	mu  sync.RWMutex
	pkg *registry.ModelPackage

	recorder *audit.Recorder
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewService builds a Service. pkg may be nil when the model failed to load
// at startup; scoring then fails until Reload succeeds.
func NewService(pkg *registry.ModelPackage, recorder *audit.Recorder, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		pkg:      pkg,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Reload atomically replaces the active model package.
func (s *Service) Reload(pkg *registry.ModelPackage) {
	s.mu.Lock()
	s.pkg = pkg
	s.mu.Unlock()
}

// ActiveModel returns the currently loaded package, or nil when none is
// loaded.
func (s *Service) ActiveModel() *registry.ModelPackage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pkg
}

// ScoreRequest is one applicant evaluation request.
type ScoreRequest struct {
	ApplicantID  string
	Features     map[string]float64
	AuditContext map[string]string
}

// ScoreResult is the served scoring outcome.
type ScoreResult struct {
	RequestID    string
	ModelVersion string
	Score        float64
	Decision     string
	ReasonCodes  []string
	AuditID      int64
}

// Score evaluates one applicant and records a score audit event. The audit
// write is part of the operation: if the trail cannot be written, the
// decision is not served.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (ScoreResult, error) {
	start := time.Now()

	pkg, err := s.activeOrErr()
	if err != nil {
		return ScoreResult{}, err
	}
	if err := validateScoreRequest(req.ApplicantID, req.Features); err != nil {
		s.metrics.IncrementRejection("bad_request")
		return ScoreResult{}, err
	}

	result, _ := modeling.Score(pkg, req.Features, s.cfg.ApprovalThreshold)

	payload := map[string]any{
		"score":        result.Score,
		"decision":     result.Decision,
		"reason_codes": toAnySlice(result.ReasonCodes),
	}
	if s.cfg.LogRequestBodies {
		payload["features"] = featuresPayload(req.Features)
		if len(req.AuditContext) > 0 {
			payload["audit_context"] = contextPayload(req.AuditContext)
		}
	}

	stored, err := s.recordEvent(ctx, audit.EventTypeScore, pkg.Version, req.ApplicantID, payload)
	if err != nil {
		return ScoreResult{}, err
	}

	s.metrics.IncrementScore(result.Decision)
	s.metrics.ObserveScoreLatency(time.Since(start))
	s.logger.InfoContext(ctx, "applicant scored",
		"decision", result.Decision,
		"model_version", pkg.Version,
		"audit_id", stored.ID,
	)

	return ScoreResult{
		RequestID:    requestcontext.RequestID(ctx),
		ModelVersion: pkg.Version,
		Score:        result.Score,
		Decision:     result.Decision,
		ReasonCodes:  result.ReasonCodes,
		AuditID:      stored.ID,
	}, nil
}

// ExplainResult decomposes a served score.
type ExplainResult struct {
	RequestID     string
	ModelVersion  string
	Score         float64
	BaseValue     float64
	Contributions []modeling.Contribution
}

// Explain scores the applicant and returns the full linear decomposition,
// recording an explain audit event.
func (s *Service) Explain(ctx context.Context, req ScoreRequest) (ExplainResult, error) {
	pkg, err := s.activeOrErr()
	if err != nil {
		return ExplainResult{}, err
	}
	if err := validateScoreRequest(req.ApplicantID, req.Features); err != nil {
		s.metrics.IncrementRejection("bad_request")
		return ExplainResult{}, err
	}

	_, explanation := modeling.Score(pkg, req.Features, s.cfg.ApprovalThreshold)

	payload := map[string]any{
		"score":      explanation.ScoreFromExplanation,
		"base_value": explanation.BaseValue,
	}
	if s.cfg.LogRequestBodies {
		payload["features"] = featuresPayload(req.Features)
	}
	if _, err := s.recordEvent(ctx, audit.EventTypeExplain, pkg.Version, req.ApplicantID, payload); err != nil {
		return ExplainResult{}, err
	}
	s.metrics.IncrementExplanation()

	return ExplainResult{
		RequestID:     requestcontext.RequestID(ctx),
		ModelVersion:  pkg.Version,
		Score:         explanation.ScoreFromExplanation,
		BaseValue:     explanation.BaseValue,
		Contributions: explanation.Contributions,
	}, nil
}

// FairnessRow is one labeled outcome attributed to a protected group.
type FairnessRow struct {
	ProtectedGroup string
	YTrue          int
	YPred          int
}

// FairnessReport aggregates outcome parity across protected groups.
type FairnessReport struct {
	Groups                      []string
	DemographicParityDifference float64
	EqualOpportunityDifference  float64
	SelectionRateByGroup        map[string]float64
	TPRByGroup                  map[string]float64
}

// Fairness computes parity metrics over caller-supplied labeled rows and
// records an aggregate-only audit event. It works without a loaded model;
// the event then carries no model version.
func (s *Service) Fairness(ctx context.Context, rows []FairnessRow, positiveLabel int) (FairnessReport, error) {
	if len(rows) == 0 {
		return FairnessReport{}, dErrors.New(dErrors.CodeBadRequest, "fairness report requires at least one row")
	}
	for i, row := range rows {
		if row.ProtectedGroup == "" {
			return FairnessReport{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("row %d has an empty protected group", i))
		}
		if !isBinary(row.YTrue) || !isBinary(row.YPred) {
			return FairnessReport{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("row %d labels must be 0 or 1", i))
		}
	}

	groups := make([]string, len(rows))
	yTrue := make([]int, len(rows))
	yPred := make([]int, len(rows))
	for i, row := range rows {
		groups[i] = row.ProtectedGroup
		yTrue[i] = row.YTrue
		yPred[i] = row.YPred
	}

	selection := modeling.SelectionRatesByGroup(groups, yPred, positiveLabel)
	tpr := modeling.TPRByGroup(groups, yTrue, yPred, positiveLabel)
	report := FairnessReport{
		Groups:                      uniqueSorted(groups),
		DemographicParityDifference: modeling.DemographicParityDifference(selection),
		EqualOpportunityDifference:  modeling.EqualOpportunityDifference(tpr),
		SelectionRateByGroup:        selection,
		TPRByGroup:                  tpr,
	}

	var version string
	if pkg := s.ActiveModel(); pkg != nil {
		version = pkg.Version
	}
	payload := map[string]any{
		"n_rows":                        len(rows),
		"positive_label":                positiveLabel,
		"demographic_parity_difference": report.DemographicParityDifference,
		"equal_opportunity_difference":  report.EqualOpportunityDifference,
	}
	if _, err := s.recordEvent(ctx, audit.EventTypeFairness, version, "", payload); err != nil {
		return FairnessReport{}, err
	}
	s.metrics.IncrementFairnessReport()

	return report, nil
}

func (s *Service) activeOrErr() (*registry.ModelPackage, error) {
	pkg := s.ActiveModel()
	if pkg == nil {
		s.metrics.IncrementRejection("model_not_loaded")
		return nil, dErrors.New(dErrors.CodeUnavailable, "no model loaded")
	}
	return pkg, nil
}

func (s *Service) recordEvent(ctx context.Context, eventType, modelVersion, subjectID string, payload map[string]any) (audit.StoredEvent, error) {
	event := audit.Event{
		RequestID: requestcontext.RequestID(ctx),
		EventType: eventType,
		Payload:   payload,
	}
	if modelVersion != "" {
		event.ModelVersion = &modelVersion
	}
	if subjectID != "" {
		event.SubjectID = &subjectID
	}
	return s.recorder.Write(ctx, event)
}

func validateScoreRequest(applicantID string, features map[string]float64) error {
	if applicantID == "" || len(applicantID) > 128 {
		return dErrors.New(dErrors.CodeBadRequest, "applicant_id must be 1-128 characters")
	}
	return modeling.ValidateFeatures(features)
}

func isBinary(v int) bool { return v == 0 || v == 1 }

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// featuresPayload converts the typed feature vector to the JSON-like shape
// the redactor traverses.
func featuresPayload(features map[string]float64) map[string]any {
	out := make(map[string]any, len(features))
	for k, v := range features {
		out[k] = v
	}
	return out
}

func contextPayload(attrs map[string]string) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
