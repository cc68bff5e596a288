package compliance

import (
	"errors"
	"sort"
)

// ErrNoPredictions indicates an empty fairness batch.
var ErrNoPredictions = errors.New("no predictions to assess")

// #region types

// Prediction is one labeled model output attributed to a protected group.
type Prediction struct {
	Group     string `json:"group"`
	Predicted bool   `json:"predicted"`
	Actual    bool   `json:"actual"`
}

// GroupStats summarizes outcomes for one protected group.
type GroupStats struct {
	Group        string  `json:"group"`
	Count        int     `json:"count"`
	PositiveRate float64 `json:"positive_rate"`
	TruePosRate  float64 `json:"true_positive_rate"`
	FalsePosRate float64 `json:"false_positive_rate"`
}

// FairnessReport holds demographic-parity and equalized-odds style ratios
// across the provided groups. Ratios are min/max, so 1.0 is perfectly fair.
type FairnessReport struct {
	Groups                 []GroupStats `json:"groups"`
	DemographicParityRatio float64      `json:"demographic_parity_ratio"`
	EqualizedOddsRatio     float64      `json:"equalized_odds_ratio"`
}

// #endregion types

// #region assess

// AssessFairness computes per-group rates and cross-group ratios. This is
// a batch operation for offline review, never on the per-tick hot path.
func AssessFairness(predictions []Prediction) (FairnessReport, error) {
	if len(predictions) == 0 {
		return FairnessReport{}, ErrNoPredictions
	}

	type accum struct {
		count, positive      int
		actualPos, actualNeg int
		truePos, falsePos    int
	}
	byGroup := make(map[string]*accum)
	for _, p := range predictions {
		a, ok := byGroup[p.Group]
		if !ok {
			a = &accum{}
			byGroup[p.Group] = a
		}
		a.count++
		if p.Predicted {
			a.positive++
		}
		if p.Actual {
			a.actualPos++
			if p.Predicted {
				a.truePos++
			}
		} else {
			a.actualNeg++
			if p.Predicted {
				a.falsePos++
			}
		}
	}

	names := make([]string, 0, len(byGroup))
	for g := range byGroup {
		names = append(names, g)
	}
	sort.Strings(names)

	report := FairnessReport{}
	var posRates, tprs, fprs []float64
	for _, g := range names {
		a := byGroup[g]
		stats := GroupStats{
			Group:        g,
			Count:        a.count,
			PositiveRate: rate(a.positive, a.count),
			TruePosRate:  rate(a.truePos, a.actualPos),
			FalsePosRate: rate(a.falsePos, a.actualNeg),
		}
		report.Groups = append(report.Groups, stats)
		posRates = append(posRates, stats.PositiveRate)
		if a.actualPos > 0 {
			tprs = append(tprs, stats.TruePosRate)
		}
		if a.actualNeg > 0 {
			fprs = append(fprs, stats.FalsePosRate)
		}
	}

	report.DemographicParityRatio = minMaxRatio(posRates)
	// Equalized odds considers both TPR and FPR parity; take the worse.
	tprRatio := minMaxRatio(tprs)
	fprRatio := minMaxRatio(fprs)
	report.EqualizedOddsRatio = tprRatio
	if fprRatio < report.EqualizedOddsRatio {
		report.EqualizedOddsRatio = fprRatio
	}
	return report, nil
}

func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// minMaxRatio returns min/max over the rates, treating an all-zero or
// empty set as perfectly balanced.
func minMaxRatio(rates []float64) float64 {
	if len(rates) == 0 {
		return 1
	}
	min, max := rates[0], rates[0]
	for _, r := range rates[1:] {
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	if max == 0 {
		return 1
	}
	return min / max
}

// #endregion assess
