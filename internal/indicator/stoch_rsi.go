package indicator

import (
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// StochRSI calculates the Stochastic RSI oscillator. %K is the position of
// the current RSI within the min/max range of the trailing kPeriod RSI
// values, scaled to [0,100]; %D is the SMA of %K over dPeriod. When the RSI
// window is flat, %K is defined as the neutral 50.
//
// Both outputs have the same length as the input; warm-up entries hold 50.
func StochRSI(values []float64, rsiPeriod, kPeriod, dPeriod int) (k, d []float64, err error) {
	if rsiPeriod <= 0 || kPeriod <= 0 || dPeriod <= 0 {
		return nil, nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"StochRSI periods must be positive integers, got %d/%d/%d", rsiPeriod, kPeriod, dPeriod)
	}

	required := rsiPeriod + kPeriod + dPeriod + 1
	if len(values) < required {
		return nil, nil, errors.NewInsufficientDataErrorf(required, len(values), "",
			"StochRSI requires %d values, have %d", required, len(values))
	}

	rsiSeries, err := RSI(values, rsiPeriod)
	if err != nil {
		return nil, nil, err
	}

	k = make([]float64, len(values))
	d = make([]float64, len(values))

	for i := range k {
		k[i] = 50
		d[i] = 50
	}

	for i := rsiPeriod + kPeriod; i < len(values); i++ {
		window := rsiSeries[i-kPeriod+1 : i+1]

		lowest := window[0]
		highest := window[0]

		for _, v := range window {
			if v < lowest {
				lowest = v
			}

			if v > highest {
				highest = v
			}
		}

		if highest == lowest {
			k[i] = 50
		} else {
			k[i] = 100 * (rsiSeries[i] - lowest) / (highest - lowest)
		}
	}

	for i := rsiPeriod + kPeriod + dPeriod; i < len(values); i++ {
		sum := 0.0
		for j := i - dPeriod + 1; j <= i; j++ {
			sum += k[j]
		}

		d[i] = sum / float64(dPeriod)
	}

	return k, d, nil
}
