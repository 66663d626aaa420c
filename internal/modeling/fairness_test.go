package modeling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionRatesByGroup(t *testing.T) {
	groups := []string{"a", "a", "a", "b", "b"}
	yPred := []int{1, 1, 0, 1, 0}

	rates := SelectionRatesByGroup(groups, yPred, 1)

	assert.InDelta(t, 2.0/3.0, rates["a"], 1e-12)
	assert.InDelta(t, 0.5, rates["b"], 1e-12)
}

func TestTPRByGroup(t *testing.T) {
	groups := []string{"a", "a", "a", "b", "b"}
	yTrue := []int{1, 1, 0, 1, 1}
	yPred := []int{1, 0, 1, 1, 1}

	rates := TPRByGroup(groups, yTrue, yPred, 1)

	assert.InDelta(t, 0.5, rates["a"], 1e-12)
	assert.InDelta(t, 1.0, rates["b"], 1e-12)
}

func TestTPRByGroupNoPositives(t *testing.T) {
	groups := []string{"a", "a"}
	yTrue := []int{0, 0}
	yPred := []int{1, 1}

	rates := TPRByGroup(groups, yTrue, yPred, 1)
	_, ok := rates["a"]
	assert.False(t, ok)
}

func TestParityDifferencesAreSpreads(t *testing.T) {
	rates := map[string]float64{"a": 0.9, "b": 0.3, "c": 0.6}

	assert.InDelta(t, 0.6, DemographicParityDifference(rates), 1e-12)
	assert.InDelta(t, 0.6, EqualOpportunityDifference(rates), 1e-12)
}

func TestParityDifferenceSingleGroupIsZero(t *testing.T) {
	assert.Zero(t, DemographicParityDifference(map[string]float64{"a": 0.7}))
	assert.Zero(t, EqualOpportunityDifference(nil))
}

func TestParityDifferenceIdenticalGroupsIsZero(t *testing.T) {
	rates := map[string]float64{"a": 0.4, "b": 0.4}
	assert.Zero(t, DemographicParityDifference(rates))
}
