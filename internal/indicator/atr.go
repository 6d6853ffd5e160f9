package indicator

import (
	"math"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// ATR calculates the Average True Range. The true range of bar i is
// max(high-low, |high-prevClose|, |low-prevClose|); the first period true
// ranges are averaged as the seed, then Wilder-smoothed:
//
//	atr[i] = (atr[i-1]*(period-1) + tr[i]) / period
//
// Only valid values are emitted: the output has len(close)-period entries,
// where out[0] is the seed average over the first period true ranges.
func ATR(high, low, close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "ATR period must be a positive integer, got %d", period)
	}

	if len(high) != len(low) || len(high) != len(close) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"ATR requires equal-length series, got %d/%d/%d", len(high), len(low), len(close))
	}

	if len(close) < period+1 {
		return nil, errors.NewInsufficientDataErrorf(period+1, len(close), "",
			"ATR requires %d values, have %d", period+1, len(close))
	}

	// True ranges start at the second bar; tr[i] belongs to bar i+1.
	tr := make([]float64, len(close)-1)
	for i := 1; i < len(close); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	out := make([]float64, 0, len(tr)-period+1)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += tr[i]
	}

	seed /= float64(period)
	out = append(out, seed)

	atr := seed
	for i := period; i < len(tr); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out = append(out, atr)
	}

	return out, nil
}
