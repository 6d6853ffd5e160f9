package indicator

import (
	"math"

	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Params holds the periods used to compute an indicator snapshot. The zero
// value is not usable; start from DefaultParams.
type Params struct {
	EMAShort  int     `yaml:"ema_short" json:"ema_short" validate:"gt=0"`
	EMAMedium int     `yaml:"ema_medium" json:"ema_medium" validate:"gt=0"`
	EMALong   int     `yaml:"ema_long" json:"ema_long" validate:"gt=0"`
	EMATrend  int     `yaml:"ema_trend" json:"ema_trend" validate:"gt=0"`
	RSIPeriod int     `yaml:"rsi_period" json:"rsi_period" validate:"gt=0"`
	MACDFast  int     `yaml:"macd_fast" json:"macd_fast" validate:"gt=0"`
	MACDSlow  int     `yaml:"macd_slow" json:"macd_slow" validate:"gt=0"`
	MACDSig   int     `yaml:"macd_signal" json:"macd_signal" validate:"gt=0"`
	BBPeriod  int     `yaml:"bb_period" json:"bb_period" validate:"gt=0"`
	BBStdDev  float64 `yaml:"bb_std_dev" json:"bb_std_dev" validate:"gt=0"`
	ATRPeriod int     `yaml:"atr_period" json:"atr_period" validate:"gt=0"`
	StochRSI  int     `yaml:"stoch_rsi_period" json:"stoch_rsi_period" validate:"gt=0"`
	StochK    int     `yaml:"stoch_k_period" json:"stoch_k_period" validate:"gt=0"`
	StochD    int     `yaml:"stoch_d_period" json:"stoch_d_period" validate:"gt=0"`
	VolSMA    int     `yaml:"volume_sma_period" json:"volume_sma_period" validate:"gt=0"`
	// MomentumBars is the lookback for the momentum percentage.
	MomentumBars int `yaml:"momentum_bars" json:"momentum_bars" validate:"gt=0"`
}

// DefaultParams returns the canonical period set: EMA 9/21/50/200, RSI 14,
// MACD 12/26/9, Bollinger 20/2, ATR 14, StochRSI 14/3/3, volume SMA 20.
func DefaultParams() Params {
	return Params{
		EMAShort:     9,
		EMAMedium:    21,
		EMALong:      50,
		EMATrend:     200,
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSig:      9,
		BBPeriod:     20,
		BBStdDev:     2.0,
		ATRPeriod:    14,
		StochRSI:     14,
		StochK:       3,
		StochD:       3,
		VolSMA:       20,
		MomentumBars: 5,
	}
}

// MinLookback returns the number of candles required to compute a full
// snapshot with these params.
func (p Params) MinLookback() int {
	required := p.EMATrend

	candidates := []int{
		p.MACDSlow + p.MACDSig,
		p.BBPeriod,
		p.ATRPeriod + 1,
		p.StochRSI + p.StochK + p.StochD + 1,
		p.VolSMA,
		p.RSIPeriod + 1,
		p.MomentumBars + 1,
	}

	for _, c := range candidates {
		if c > required {
			required = c
		}
	}

	return required
}

// Snapshot holds the computed indicator values for the final bar of a candle
// window. It is derived data and never persisted independently.
type Snapshot struct {
	Close  float64
	Volume float64

	EMAShort  float64
	EMAMedium float64
	EMALong   float64
	EMATrend  float64

	RSI float64

	MACD         float64
	MACDSignal   float64
	MACDHist     float64
	MACDHistPrev float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	ATR float64

	StochK float64
	StochD float64

	VolumeSMA float64
	AvgDev    float64

	// VolatilityPct is ATR as a percentage of the close price.
	VolatilityPct float64
	// MomentumPct is the close change over MomentumBars bars as a percentage.
	MomentumPct float64
}

// ComputeSnapshot evaluates all indicators over the candle window and returns
// the values at the final bar. The window must be ordered oldest-first and
// contain at least p.MinLookback() candles. All returned values are finite;
// degenerate intermediate results are normalized before they can cross a
// component boundary.
func ComputeSnapshot(candles []types.Candle, p Params) (Snapshot, error) {
	required := p.MinLookback()
	if len(candles) < required {
		symbol := ""
		if len(candles) > 0 {
			symbol = candles[0].Symbol
		}

		return Snapshot{}, errors.NewInsufficientDataErrorf(required, len(candles), symbol,
			"snapshot requires %d candles, have %d", required, len(candles))
	}

	closes := types.Closes(candles)
	highs := types.Highs(candles)
	lows := types.Lows(candles)
	volumes := types.Volumes(candles)

	snap := Snapshot{
		Close:  Last(closes),
		Volume: Last(volumes),
	}

	emaShort, err := EMA(closes, p.EMAShort)
	if err != nil {
		return Snapshot{}, err
	}

	emaMedium, err := EMA(closes, p.EMAMedium)
	if err != nil {
		return Snapshot{}, err
	}

	emaLong, err := EMA(closes, p.EMALong)
	if err != nil {
		return Snapshot{}, err
	}

	emaTrend, err := EMA(closes, p.EMATrend)
	if err != nil {
		return Snapshot{}, err
	}

	snap.EMAShort = Last(emaShort)
	snap.EMAMedium = Last(emaMedium)
	snap.EMALong = Last(emaLong)
	snap.EMATrend = Last(emaTrend)

	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return Snapshot{}, err
	}

	snap.RSI = Last(rsi)

	macdLine, macdSignal, macdHist, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSig)
	if err != nil {
		return Snapshot{}, err
	}

	snap.MACD = Last(macdLine)
	snap.MACDSignal = Last(macdSignal)
	snap.MACDHist = Last(macdHist)
	snap.MACDHistPrev = macdHist[len(macdHist)-2]

	bbUpper, bbMiddle, bbLower, err := Bollinger(closes, p.BBPeriod, p.BBStdDev)
	if err != nil {
		return Snapshot{}, err
	}

	snap.BBUpper = Last(bbUpper)
	snap.BBMiddle = Last(bbMiddle)
	snap.BBLower = Last(bbLower)

	atr, err := ATR(highs, lows, closes, p.ATRPeriod)
	if err != nil {
		return Snapshot{}, err
	}

	snap.ATR = Last(atr)

	stochK, stochD, err := StochRSI(closes, p.StochRSI, p.StochK, p.StochD)
	if err != nil {
		return Snapshot{}, err
	}

	snap.StochK = Last(stochK)
	snap.StochD = Last(stochD)

	volSMA, err := SMA(volumes, p.VolSMA)
	if err != nil {
		return Snapshot{}, err
	}

	snap.VolumeSMA = Last(volSMA)

	avgDev, err := AvgDeviation(closes, p.BBPeriod)
	if err != nil {
		return Snapshot{}, err
	}

	snap.AvgDev = Last(avgDev)

	if snap.Close > 0 {
		snap.VolatilityPct = snap.ATR / snap.Close * 100
	}

	ref := closes[len(closes)-1-p.MomentumBars]
	if ref != 0 {
		snap.MomentumPct = (Last(closes) - ref) / ref * 100
	}

	snap.normalize()

	return snap, nil
}

// normalize replaces non-finite values with safe neutral fallbacks so no NaN
// or infinity leaves the indicator layer.
func (s *Snapshot) normalize() {
	finite := func(v, fallback float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}

		return v
	}

	s.EMAShort = finite(s.EMAShort, s.Close)
	s.EMAMedium = finite(s.EMAMedium, s.Close)
	s.EMALong = finite(s.EMALong, s.Close)
	s.EMATrend = finite(s.EMATrend, s.Close)
	s.RSI = finite(s.RSI, 50)
	s.MACD = finite(s.MACD, 0)
	s.MACDSignal = finite(s.MACDSignal, 0)
	s.MACDHist = finite(s.MACDHist, 0)
	s.MACDHistPrev = finite(s.MACDHistPrev, 0)
	s.BBUpper = finite(s.BBUpper, s.Close)
	s.BBMiddle = finite(s.BBMiddle, s.Close)
	s.BBLower = finite(s.BBLower, s.Close)
	s.ATR = finite(s.ATR, s.Close*0.02)
	s.StochK = finite(s.StochK, 50)
	s.StochD = finite(s.StochD, 50)
	s.VolumeSMA = finite(s.VolumeSMA, s.Volume)
	s.AvgDev = finite(s.AvgDev, 0)
	s.VolatilityPct = finite(s.VolatilityPct, 0)
	s.MomentumPct = finite(s.MomentumPct, 0)
}
