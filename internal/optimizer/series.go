package optimizer

import "math"

// #region series-helpers

// appendBounded appends v and trims the series to at most max entries.
func appendBounded(series []float64, v float64, max int) []float64 {
	series = append(series, v)
	if max > 0 && len(series) > max {
		series = series[1:]
	}
	return series
}

// meanOf returns the arithmetic mean, 0 for an empty series.
func meanOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// seriesCorrelation computes the Pearson correlation over the overlapping
// tail of two series. Returns 0 when either side is constant or too short.
func seriesCorrelation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	meanA := meanOf(a)
	meanB := meanOf(b)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// seriesTrend compares the mean of the newer half against the older half.
func seriesTrend(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mid := len(series) / 2
	return meanOf(series[mid:]) - meanOf(series[:mid])
}

// #endregion series-helpers
