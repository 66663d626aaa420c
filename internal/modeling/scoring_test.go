package modeling

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miecredit/internal/registry"
)

func testPackage() *registry.ModelPackage {
	return &registry.ModelPackage{
		Version:  "v-test",
		Approved: true,
		Model: registry.LinearModel{
			FeatureNames: []string{"a", "b", "c"},
			Weights:      map[string]float64{"a": 2.0, "b": -1.5, "c": 0.25},
			Intercept:    -0.5,
		},
	}
}

func TestScoreMatchesExplanation(t *testing.T) {
	pkg := testPackage()
	features := map[string]float64{"a": 0.8, "b": 1.2, "c": 4.0}

	res, exp := Score(pkg, features, 0.5)

	logit := pkg.Model.Intercept
	for _, c := range exp.Contributions {
		logit += c.Contribution
	}
	reconstructed := 1.0 / (1.0 + math.Exp(-logit))

	assert.InDelta(t, res.Score, reconstructed, 1e-12)
	assert.InDelta(t, res.Score, exp.ScoreFromExplanation, 1e-12)
	assert.Equal(t, pkg.Model.Intercept, exp.BaseValue)
}

func TestScoreDecisionThreshold(t *testing.T) {
	pkg := testPackage()
	strong := map[string]float64{"a": 3.0, "b": 0, "c": 0}
	weak := map[string]float64{"a": 0, "b": 3.0, "c": 0}

	res, _ := Score(pkg, strong, 0.5)
	assert.Equal(t, DecisionApprove, res.Decision)

	res, _ = Score(pkg, weak, 0.5)
	assert.Equal(t, DecisionReview, res.Decision)
}

func TestScoreDecisionBoundaryApproves(t *testing.T) {
	pkg := &registry.ModelPackage{
		Version: "v-test",
		Model: registry.LinearModel{
			FeatureNames: []string{"a"},
			Weights:      map[string]float64{"a": 0},
			Intercept:    0,
		},
	}
	// Sigmoid(0) is exactly 0.5; the boundary score approves.
	res, _ := Score(pkg, map[string]float64{"a": 1}, 0.5)
	assert.Equal(t, DecisionApprove, res.Decision)
	assert.InDelta(t, 0.5, res.Score, 1e-12)
}

func TestScoreMissingFeatureContributesZero(t *testing.T) {
	pkg := testPackage()
	res, exp := Score(pkg, map[string]float64{"a": 1.0}, 0.5)

	require.Len(t, exp.Contributions, 3)
	for _, c := range exp.Contributions {
		if c.Feature != "a" {
			assert.Zero(t, c.Contribution)
		}
	}
	expected := 1.0 / (1.0 + math.Exp(-(pkg.Model.Intercept + 2.0)))
	assert.InDelta(t, expected, res.Score, 1e-12)
}

func TestContributionsSortedByAbsoluteEffect(t *testing.T) {
	pkg := testPackage()
	_, exp := Score(pkg, map[string]float64{"a": 0.1, "b": 2.0, "c": 10.0}, 0.5)

	sorted := sort.SliceIsSorted(exp.Contributions, func(i, j int) bool {
		return math.Abs(exp.Contributions[i].Contribution) > math.Abs(exp.Contributions[j].Contribution)
	})
	assert.True(t, sorted)
}

func TestReasonCodesAreMostNegative(t *testing.T) {
	pkg := &registry.ModelPackage{
		Version: "v-test",
		Model: registry.LinearModel{
			FeatureNames: []string{"p1", "n1", "n2", "n3", "n4", "n5"},
			Weights: map[string]float64{
				"p1": 1.0,
				"n1": -0.1, "n2": -0.2, "n3": -0.3, "n4": -0.4, "n5": -0.5,
			},
		},
	}
	features := map[string]float64{"p1": 1, "n1": 1, "n2": 1, "n3": 1, "n4": 1, "n5": 1}

	res, _ := Score(pkg, features, 0.5)

	require.Len(t, res.ReasonCodes, maxReasonCodes)
	assert.Equal(t, []string{"N5", "N4", "N3", "N2"}, res.ReasonCodes)
	for _, code := range res.ReasonCodes {
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

func TestReasonCodesEmptyWhenNothingNegative(t *testing.T) {
	pkg := &registry.ModelPackage{
		Version: "v-test",
		Model: registry.LinearModel{
			FeatureNames: []string{"a"},
			Weights:      map[string]float64{"a": 1.0},
		},
	}
	res, _ := Score(pkg, map[string]float64{"a": 1}, 0.5)
	assert.Empty(t, res.ReasonCodes)
}
