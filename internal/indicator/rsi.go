package indicator

import (
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// RSI calculates the Relative Strength Index using Wilder smoothing. The seed
// average gain/loss comes from the first period deltas; subsequent averages
// are smoothed recursively:
//
//	up = (up*(period-1) + gain) / period
//
// When the smoothed loss is zero the RSI is defined as 100 (perfect uptrend),
// which avoids division by zero and makes a constant series read as 100.
//
// The output has the same length as the input; entries before the first fully
// seeded index hold the seed RSI.
func RSI(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "RSI period must be a positive integer, got %d", period)
	}

	if len(values) < period+1 {
		return nil, errors.NewInsufficientDataErrorf(period+1, len(values), "",
			"RSI requires %d values, have %d", period+1, len(values))
	}

	up := 0.0
	down := 0.0

	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			up += delta
		} else {
			down -= delta
		}
	}

	up /= float64(period)
	down /= float64(period)

	out := make([]float64, len(values))
	seed := rsiFromAverages(up, down)

	for i := 0; i <= period; i++ {
		out[i] = seed
	}

	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]

		gain := 0.0
		loss := 0.0

		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		up = (up*float64(period-1) + gain) / float64(period)
		down = (down*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(up, down)
	}

	return out, nil
}

func rsiFromAverages(up, down float64) float64 {
	if down == 0 {
		return 100
	}

	rs := up / down

	return 100 - 100/(1+rs)
}
