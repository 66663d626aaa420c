package handler

import "miecredit/internal/decision"

// ScoreRequest is the wire shape for POST /v1/score.
type ScoreRequest struct {
	ApplicantID  string             `json:"applicant_id"`
	Features     map[string]float64 `json:"features"`
	AuditContext map[string]string  `json:"audit_context,omitempty"`
}

// ToDomain converts the wire request to the domain request.
func (r ScoreRequest) ToDomain() decision.ScoreRequest {
	return decision.ScoreRequest{
		ApplicantID:  r.ApplicantID,
		Features:     r.Features,
		AuditContext: r.AuditContext,
	}
}

// ExplainRequest is the wire shape for POST /v1/explain. The audit context
// is not accepted here; explanations never carry protected attributes.
type ExplainRequest struct {
	ApplicantID string             `json:"applicant_id"`
	Features    map[string]float64 `json:"features"`
}

// FairnessRow is one labeled outcome row in a fairness report request.
type FairnessRow struct {
	ProtectedGroup string `json:"protected_group"`
	YTrue          int    `json:"y_true"`
	YPred          int    `json:"y_pred"`
}

// FairnessRequest is the wire shape for POST /v1/audit/fairness. A missing
// positive_label defaults to 1.
type FairnessRequest struct {
	Rows          []FairnessRow `json:"rows"`
	PositiveLabel *int          `json:"positive_label,omitempty"`
}

func (r FairnessRequest) DomainRows() []decision.FairnessRow {
	rows := make([]decision.FairnessRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = decision.FairnessRow{
			ProtectedGroup: row.ProtectedGroup,
			YTrue:          row.YTrue,
			YPred:          row.YPred,
		}
	}
	return rows
}

func (r FairnessRequest) Positive() int {
	if r.PositiveLabel == nil {
		return 1
	}
	return *r.PositiveLabel
}
