package indicator

import (
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// SMA calculates the trailing simple moving average of values. Only valid
// windows are emitted: the output has len(values)-period+1 entries, where
// out[0] is the mean of values[0:period].
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "SMA period must be a positive integer, got %d", period)
	}

	if len(values) < period {
		return nil, errors.NewInsufficientDataErrorf(period, len(values), "",
			"SMA requires %d values, have %d", period, len(values))
	}

	out := make([]float64, 0, len(values)-period+1)

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}

	return out, nil
}
