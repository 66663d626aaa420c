// Package modeling holds the linear scoring model, its explanation
// machinery, fairness metrics, and the demo training pipeline.
package modeling

import (
	"math"
	"sort"
	"strings"

	"miecredit/internal/registry"
)

// Decision labels. Scores at or above the approval threshold approve; the
// rest are routed to manual review rather than declined outright.
const (
	DecisionApprove = "APPROVE"
	DecisionReview  = "REVIEW"
)

// maxReasonCodes bounds how many adverse factors are surfaced per decision.
const maxReasonCodes = 4

// Result is the scoring outcome for one applicant.
type Result struct {
	Score       float64
	Decision    string
	ReasonCodes []string
}

// Contribution is one feature's share of the final log-odds.
type Contribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Explanation decomposes a score into its base value and per-feature
// contributions. ScoreFromExplanation reconstructs the score from the
// decomposition and always equals the served score.
type Explanation struct {
	BaseValue            float64        `json:"base_value"`
	ScoreFromExplanation float64        `json:"score_from_explanation"`
	Contributions        []Contribution `json:"contributions"`
}

// Score runs the linear model over the feature vector and derives the
// decision, reason codes, and a full explanation. Missing features
// contribute zero.
func Score(pkg *registry.ModelPackage, features map[string]float64, threshold float64) (Result, Explanation) {
	logit := pkg.Model.Intercept
	contributions := make([]Contribution, 0, len(pkg.Model.FeatureNames))

	for _, name := range pkg.Model.FeatureNames {
		weight := pkg.Model.Weights[name]
		value := features[name]
		contribution := weight * value
		logit += contribution
		contributions = append(contributions, Contribution{
			Feature:      name,
			Value:        value,
			Weight:       weight,
			Contribution: contribution,
		})
	}

	// Largest absolute effect first, for readable explanations.
	sort.SliceStable(contributions, func(i, j int) bool {
		return math.Abs(contributions[i].Contribution) > math.Abs(contributions[j].Contribution)
	})

	score := sigmoid(logit)
	decision := DecisionReview
	if score >= threshold {
		decision = DecisionApprove
	}

	return Result{
			Score:       score,
			Decision:    decision,
			ReasonCodes: reasonCodes(contributions),
		}, Explanation{
			BaseValue:            pkg.Model.Intercept,
			ScoreFromExplanation: score,
			Contributions:        contributions,
		}
}

// reasonCodes surfaces the features that pulled the score down the most.
// Codes are the upper-cased feature names so downstream systems can map
// them to adverse-action notices.
func reasonCodes(contributions []Contribution) []string {
	negative := make([]Contribution, 0, len(contributions))
	for _, c := range contributions {
		if c.Contribution < 0 {
			negative = append(negative, c)
		}
	}
	sort.SliceStable(negative, func(i, j int) bool {
		return negative[i].Contribution < negative[j].Contribution
	})
	if len(negative) > maxReasonCodes {
		negative = negative[:maxReasonCodes]
	}

	codes := make([]string, 0, len(negative))
	for _, c := range negative {
		codes = append(codes, strings.ToUpper(c.Feature))
	}
	return codes
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
