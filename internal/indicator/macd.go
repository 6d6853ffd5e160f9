package indicator

import (
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// MACD calculates the Moving Average Convergence Divergence:
// line = EMA(fast) - EMA(slow), signal = EMA(line, signalPeriod),
// hist = line - signal. All three outputs have the same length as the input.
func MACD(values []float64, fast, slow, signalPeriod int) (line, signal, hist []float64, err error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return nil, nil, nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"MACD periods must be positive integers, got %d/%d/%d", fast, slow, signalPeriod)
	}

	required := slow + signalPeriod
	if len(values) < required {
		return nil, nil, nil, errors.NewInsufficientDataErrorf(required, len(values), "",
			"MACD requires %d values, have %d", required, len(values))
	}

	fastEMA, err := EMA(values, fast)
	if err != nil {
		return nil, nil, nil, err
	}

	slowEMA, err := EMA(values, slow)
	if err != nil {
		return nil, nil, nil, err
	}

	line = make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signal, err = EMA(line, signalPeriod)
	if err != nil {
		return nil, nil, nil, err
	}

	hist = make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - signal[i]
	}

	return line, signal, hist, nil
}
