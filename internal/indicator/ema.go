// Package indicator provides pure technical indicator functions over ordered
// price and volume series. Every function declares a minimum lookback and
// returns *errors.InsufficientDataError when the input is shorter; callers at
// a decision boundary degrade that to a hold, never a fatal error.
//
// Two output conventions are used:
//   - recursive indicators (EMA, RSI, MACD, StochRSI) return a series with the
//     same length as the input, with warm-up entries filled as documented;
//   - windowed indicators (SMA, Bollinger, ATR, AvgDeviation) return only the
//     valid trailing windows, so the output is shorter than the input.
package indicator

import (
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// EMA calculates the exponential moving average of values. The series is
// seeded with the first value and smoothed with alpha = 2/(period+1):
//
//	ema[i] = alpha*v[i] + (1-alpha)*ema[i-1]
//
// EMA with period 1 reproduces the input exactly.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "EMA period must be a positive integer, got %d", period)
	}

	if len(values) == 0 {
		return nil, errors.NewInsufficientDataErrorf(1, 0, "", "EMA requires at least 1 value")
	}

	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]

	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out, nil
}

// Last returns the final value of a series, or 0 for an empty series.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return values[len(values)-1]
}
