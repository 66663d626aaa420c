package handler

import (
	"miecredit/internal/decision"
	"miecredit/internal/modeling"
)

// ScoreResponse is the wire shape returned by POST /v1/score.
type ScoreResponse struct {
	RequestID    string   `json:"request_id"`
	ModelVersion string   `json:"model_version"`
	Score        float64  `json:"score"`
	Decision     string   `json:"decision"`
	ReasonCodes  []string `json:"reason_codes"`
}

func fromScoreResult(res decision.ScoreResult) ScoreResponse {
	codes := res.ReasonCodes
	if codes == nil {
		codes = []string{}
	}
	return ScoreResponse{
		RequestID:    res.RequestID,
		ModelVersion: res.ModelVersion,
		Score:        res.Score,
		Decision:     res.Decision,
		ReasonCodes:  codes,
	}
}

// ExplainResponse is the wire shape returned by POST /v1/explain.
type ExplainResponse struct {
	RequestID     string                  `json:"request_id"`
	ModelVersion  string                  `json:"model_version"`
	Score         float64                 `json:"score"`
	BaseValue     float64                 `json:"base_value"`
	Contributions []modeling.Contribution `json:"contributions"`
}

func fromExplainResult(res decision.ExplainResult) ExplainResponse {
	return ExplainResponse{
		RequestID:     res.RequestID,
		ModelVersion:  res.ModelVersion,
		Score:         res.Score,
		BaseValue:     res.BaseValue,
		Contributions: res.Contributions,
	}
}

// FairnessResponse is the wire shape returned by POST /v1/audit/fairness.
type FairnessResponse struct {
	Groups                      []string           `json:"groups"`
	DemographicParityDifference float64            `json:"demographic_parity_difference"`
	EqualOpportunityDifference  float64            `json:"equal_opportunity_difference"`
	SelectionRateByGroup        map[string]float64 `json:"selection_rate_by_group"`
	TPRByGroup                  map[string]float64 `json:"tpr_by_group"`
}

func fromFairnessReport(report decision.FairnessReport) FairnessResponse {
	return FairnessResponse{
		Groups:                      report.Groups,
		DemographicParityDifference: report.DemographicParityDifference,
		EqualOpportunityDifference:  report.EqualOpportunityDifference,
		SelectionRateByGroup:        report.SelectionRateByGroup,
		TPRByGroup:                  report.TPRByGroup,
	}
}
