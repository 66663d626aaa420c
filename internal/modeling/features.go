package modeling

import (
	"fmt"
	"sort"

	dErrors "miecredit/pkg/domain-errors"
)

// FeatureSpec bounds one interpretable alternative-data feature. Protected
// class attributes are deliberately absent from the feature set; they may
// only appear in the optional audit context, never as model input.
type FeatureSpec struct {
	Name string
	Min  float64
	Max  float64
}

// featureSpecs is the governed feature catalogue. Order matters: it is the
// canonical feature order for training and artifacts.
var featureSpecs = []FeatureSpec{
	{Name: "rent_on_time_ratio_12m", Min: 0, Max: 1},
	{Name: "utilities_on_time_ratio_12m", Min: 0, Max: 1},
	{Name: "cashflow_volatility_90d", Min: 0, Max: 5},
	{Name: "income_stability_6m", Min: 0, Max: 1},
	{Name: "avg_monthly_net_inflow_6m", Min: -10000, Max: 100000},
	{Name: "avg_daily_balance_90d", Min: -5000, Max: 100000},
	{Name: "overdraft_count_12m", Min: 0, Max: 50},
	{Name: "months_at_address", Min: 1, Max: 240},
}

// FeatureNames returns the canonical feature order.
func FeatureNames() []string {
	names := make([]string, len(featureSpecs))
	for i, spec := range featureSpecs {
		names[i] = spec.Name
	}
	return names
}

// ValidateFeatures checks that every governed feature is present and within
// bounds, and that no ungoverned feature sneaks in. Returns a bad_request
// domain error naming the first offending feature.
func ValidateFeatures(features map[string]float64) error {
	for _, spec := range featureSpecs {
		value, ok := features[spec.Name]
		if !ok {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("missing feature %q", spec.Name))
		}
		if value < spec.Min || value > spec.Max {
			return dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("feature %q value %g outside [%g, %g]", spec.Name, value, spec.Min, spec.Max))
		}
	}

	if len(features) > len(featureSpecs) {
		known := make(map[string]struct{}, len(featureSpecs))
		for _, spec := range featureSpecs {
			known[spec.Name] = struct{}{}
		}
		var extras []string
		for name := range features {
			if _, ok := known[name]; !ok {
				extras = append(extras, name)
			}
		}
		sort.Strings(extras)
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown feature %q", extras[0]))
	}
	return nil
}
