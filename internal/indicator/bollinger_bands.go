package indicator

import (
	"math"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Bollinger calculates Bollinger Bands: middle = SMA(period), upper/lower =
// middle +/- k standard deviations of the trailing window (population stddev).
// Only valid windows are emitted; each output has len(values)-period+1 entries.
func Bollinger(values []float64, period int, k float64) (upper, middle, lower []float64, err error) {
	if period <= 0 {
		return nil, nil, nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"Bollinger period must be a positive integer, got %d", period)
	}

	if len(values) < period {
		return nil, nil, nil, errors.NewInsufficientDataErrorf(period, len(values), "",
			"Bollinger requires %d values, have %d", period, len(values))
	}

	n := len(values) - period + 1
	upper = make([]float64, n)
	middle = make([]float64, n)
	lower = make([]float64, n)

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]

		mean := 0.0
		for _, v := range window {
			mean += v
		}

		mean /= float64(period)

		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}

		variance /= float64(period)
		stddev := math.Sqrt(variance)

		j := i - period + 1
		middle[j] = mean
		upper[j] = mean + k*stddev
		lower[j] = mean - k*stddev
	}

	return upper, middle, lower, nil
}
