package memory

import (
	"math"
	"time"
)

// #region decayed-sum

// decayedSum is the pure aggregation kernel: log-compressed intensity
// weighted by exponential age decay. Future-dated records count at full
// weight rather than amplifying.
func decayedSum(records []ExperienceRecord, now time.Time, lambda float64) float64 {
	var score float64
	for _, rec := range records {
		ageHours := now.Sub(rec.Timestamp).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		score += math.Log(1+rec.Intensity) * math.Exp(-lambda*ageHours)
	}
	return score
}

// #endregion decayed-sum
