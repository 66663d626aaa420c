package modeling

// Fairness metrics over already-aggregated group/label vectors. These are
// pure statistical functions: groups, true labels, and predicted labels are
// parallel slices, and the positive label marks the favorable outcome.

// SelectionRatesByGroup returns, per group, the share of rows predicted
// positive.
func SelectionRatesByGroup(groups []string, yPred []int, positiveLabel int) map[string]float64 {
	totals := make(map[string]int)
	selected := make(map[string]int)
	for i, group := range groups {
		totals[group]++
		if i < len(yPred) && yPred[i] == positiveLabel {
			selected[group]++
		}
	}

	rates := make(map[string]float64, len(totals))
	for group, total := range totals {
		rates[group] = float64(selected[group]) / float64(total)
	}
	return rates
}

// TPRByGroup returns, per group, the true positive rate: of rows whose true
// label is positive, the share predicted positive. Groups with no positive
// rows report a rate of zero.
func TPRByGroup(groups []string, yTrue, yPred []int, positiveLabel int) map[string]float64 {
	positives := make(map[string]int)
	truePositives := make(map[string]int)
	for i, group := range groups {
		if i >= len(yTrue) || yTrue[i] != positiveLabel {
			continue
		}
		positives[group]++
		if i < len(yPred) && yPred[i] == positiveLabel {
			truePositives[group]++
		}
	}

	rates := make(map[string]float64, len(positives))
	for group, total := range positives {
		rates[group] = float64(truePositives[group]) / float64(total)
	}
	return rates
}

// DemographicParityDifference is the spread (max minus min) of selection
// rates across groups. Zero when fewer than two groups are present.
func DemographicParityDifference(selectionRates map[string]float64) float64 {
	return rateSpread(selectionRates)
}

// EqualOpportunityDifference is the spread (max minus min) of true positive
// rates across groups. Zero when fewer than two groups are present.
func EqualOpportunityDifference(tprByGroup map[string]float64) float64 {
	return rateSpread(tprByGroup)
}

func rateSpread(rates map[string]float64) float64 {
	if len(rates) < 2 {
		return 0
	}
	first := true
	var minRate, maxRate float64
	for _, rate := range rates {
		if first {
			minRate, maxRate = rate, rate
			first = false
			continue
		}
		if rate < minRate {
			minRate = rate
		}
		if rate > maxRate {
			maxRate = rate
		}
	}
	return maxRate - minRate
}
