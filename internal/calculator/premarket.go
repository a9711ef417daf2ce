package calculator

import (
	"math"

	"PivotLevels/internal/model"
)

// PremarketHighLow scans intraday bars strictly before cutoff (unix seconds)
// and returns their high and low. It returns nil when no bar qualifies.
func PremarketHighLow(series model.Series, cutoff int64) *model.PremarketRange {
	high := math.Inf(-1)
	low := math.Inf(1)
	seen := false
	for _, b := range series {
		if b.Time >= cutoff {
			continue
		}
		seen = true
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	if !seen || math.IsInf(high, -1) || math.IsInf(low, 1) {
		return nil
	}
	return &model.PremarketRange{High: high, Low: low}
}
