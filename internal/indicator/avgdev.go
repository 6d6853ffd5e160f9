package indicator

import (
	"math"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// AvgDeviation calculates the mean absolute deviation of each trailing window
// from its own mean. Only valid windows are emitted; the output has
// len(values)-period+1 entries.
func AvgDeviation(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"AvgDeviation period must be a positive integer, got %d", period)
	}

	if len(values) < period {
		return nil, errors.NewInsufficientDataErrorf(period, len(values), "",
			"AvgDeviation requires %d values, have %d", period, len(values))
	}

	out := make([]float64, 0, len(values)-period+1)

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]

		mean := 0.0
		for _, v := range window {
			mean += v
		}

		mean /= float64(period)

		dev := 0.0
		for _, v := range window {
			dev += math.Abs(v - mean)
		}

		out = append(out, dev/float64(period))
	}

	return out, nil
}
