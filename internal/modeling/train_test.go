package modeling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "miecredit/pkg/domain-errors"
	"miecredit/internal/registry"
)

func TestTrainBaselineWritesUnapprovedPackage(t *testing.T) {
	dir := t.TempDir()

	report, err := TrainBaseline(TrainConfig{
		Version:     "v0.1.0",
		RegistryDir: dir,
		SynthRows:   500,
		Seed:        7,
		Epochs:      50,
	})
	require.NoError(t, err)
	assert.False(t, report.Approved)
	assert.Equal(t, 500, report.TrainedRows)
	assert.Greater(t, report.Accuracy, 0.6)

	// The written package exists, loads without approval enforcement, and
	// carries its real approval state.
	pkg, err := registry.LoadApproved(dir, "v0.1.0", false)
	require.NoError(t, err)
	assert.False(t, pkg.Approved)
	assert.Equal(t, FeatureNames(), pkg.Model.FeatureNames)
	assert.Len(t, pkg.Model.Weights, len(FeatureNames()))

	// The governance gate rejects it until approved.
	_, err = registry.LoadApproved(dir, "v0.1.0", true)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeGovernance, dErrors.CodeOf(err))

	card, err := registry.ReadModelCard(dir, "v0.1.0")
	require.NoError(t, err)
	assert.Contains(t, card, "v0.1.0")
}

func TestTrainBaselineDeterministicForSeed(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	cfg := TrainConfig{Version: "v1", SynthRows: 300, Seed: 42, Epochs: 30}

	cfg.RegistryDir = dirA
	_, err := TrainBaseline(cfg)
	require.NoError(t, err)
	cfg.RegistryDir = dirB
	_, err = TrainBaseline(cfg)
	require.NoError(t, err)

	a, err := registry.LoadApproved(dirA, "v1", false)
	require.NoError(t, err)
	b, err := registry.LoadApproved(dirB, "v1", false)
	require.NoError(t, err)
	assert.Equal(t, a.Model.Weights, b.Model.Weights)
	assert.Equal(t, a.Model.Intercept, b.Model.Intercept)
}

func TestTrainBaselineRejectsMissingConfig(t *testing.T) {
	_, err := TrainBaseline(TrainConfig{Version: "", RegistryDir: ""})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestTrainBaselineRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	cfg := TrainConfig{Version: "v1", RegistryDir: dir, SynthRows: 100, Seed: 1, Epochs: 10}

	_, err := TrainBaseline(cfg)
	require.NoError(t, err)

	_, err = TrainBaseline(cfg)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestValidateFeatures(t *testing.T) {
	valid := map[string]float64{
		"rent_on_time_ratio_12m":      0.9,
		"utilities_on_time_ratio_12m": 0.95,
		"cashflow_volatility_90d":     0.4,
		"income_stability_6m":         0.8,
		"avg_monthly_net_inflow_6m":   2500,
		"avg_daily_balance_90d":       4000,
		"overdraft_count_12m":         1,
		"months_at_address":           24,
	}
	require.NoError(t, ValidateFeatures(valid))

	missing := map[string]float64{}
	for k, v := range valid {
		missing[k] = v
	}
	delete(missing, "months_at_address")
	err := ValidateFeatures(missing)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	outOfRange := map[string]float64{}
	for k, v := range valid {
		outOfRange[k] = v
	}
	outOfRange["rent_on_time_ratio_12m"] = 1.5
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(ValidateFeatures(outOfRange)))

	extra := map[string]float64{}
	for k, v := range valid {
		extra[k] = v
	}
	extra["zip_code"] = 94110
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(ValidateFeatures(extra)))
}
