// Package strategy implements the signal scorer: an N-of-M boolean condition
// heuristic over an indicator snapshot, with ATR-scaled stop and take levels.
// The predicate lists are fixed and ordered; their thresholds live in Config
// so preset variants stay configuration, not separate code paths.
package strategy

import (
	"fmt"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Scorer evaluates a candle window into a trading decision. It is stateless
// between calls and safe for concurrent use.
type Scorer struct {
	config Config
}

// NewScorer creates a Scorer with a validated config.
func NewScorer(config Config) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Scorer{config: config}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config {
	return s.config
}

// Evaluate scores the trailing candle window ending at the last element and
// returns a decision for that bar. A window below the indicator lookback
// degrades to a hold decision with a nil error; the caller never has to treat
// short data as fatal.
//
// Buy takes precedence over sell when both thresholds are met, so at most one
// side is ever emitted.
func (s *Scorer) Evaluate(candles []types.Candle) (types.Decision, error) {
	if len(candles) == 0 {
		return types.Hold("", 0, time.Time{}, "no candles"), nil
	}

	last := candles[len(candles)-1]

	snap, err := indicator.ComputeSnapshot(candles, s.config.Indicator)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return types.Hold(last.Symbol, last.Close, last.Time, "insufficient data"), nil
		}

		return types.Decision{}, err
	}

	buyScore := countTrue(s.buyConditions(snap))
	sellScore := countTrue(s.sellConditions(snap))

	decision := types.Hold(last.Symbol, last.Close, last.Time, "below threshold")
	decision.BuyScore = buyScore
	decision.SellScore = sellScore

	switch {
	case buyScore >= s.config.BuyThreshold:
		decision.Side = types.SideBuy
	case sellScore >= s.config.SellThreshold:
		decision.Side = types.SideSell
	default:
		return decision, nil
	}

	atrMultiplier := clamp(snap.VolatilityPct, s.config.ATRMultiplierMin, s.config.ATRMultiplierMax)
	stopDistance := atrMultiplier * snap.ATR
	takeDistance := stopDistance * s.config.RewardRatio

	if stopDistance > last.Close*s.config.MaxRiskPct/100 {
		decision.Side = types.SideHold
		decision.Reason = fmt.Sprintf("stop distance %.4f exceeds %.1f%% of price", stopDistance, s.config.MaxRiskPct)

		return decision, nil
	}

	if decision.Side == types.SideBuy {
		decision.StopLoss = last.Close - stopDistance
		decision.TakeProfit = last.Close + takeDistance
		decision.Reason = fmt.Sprintf("buy score %d/8", buyScore)
	} else {
		decision.StopLoss = last.Close + stopDistance
		decision.TakeProfit = last.Close - takeDistance
		decision.Reason = fmt.Sprintf("sell score %d/8", sellScore)
	}

	if err := decision.Validate(); err != nil {
		// A degenerate stop layout (e.g. zero ATR) cannot open a position.
		hold := types.Hold(last.Symbol, last.Close, last.Time, "degenerate stop levels")
		hold.BuyScore = buyScore
		hold.SellScore = sellScore

		return hold, nil
	}

	return decision, nil
}

// buyConditions is the fixed, ordered buy predicate list. Order matters only
// for documentation and debugging; the score is a plain count.
func (s *Scorer) buyConditions(snap indicator.Snapshot) []bool {
	c := s.config

	return []bool{
		snap.Close < snap.BBLower*c.BBBuyProximity,
		snap.RSI < c.RSIBuyMax,
		snap.MACDHist > c.MACDHistBuyMin,
		snap.EMAShort > snap.EMAMedium*c.EMASlackBuy,
		snap.EMAMedium > snap.EMALong*c.EMASlackBuy,
		snap.Volume > snap.VolumeSMA*c.VolumeFactor,
		snap.StochK < c.StochBuyMax,
		snap.VolatilityPct < c.VolatilityCeiling,
	}
}

func (s *Scorer) sellConditions(snap indicator.Snapshot) []bool {
	c := s.config

	return []bool{
		snap.Close > snap.BBUpper*c.BBSellProximity,
		snap.RSI > c.RSISellMin,
		snap.MACDHist < c.MACDHistSellMax,
		snap.EMAShort < snap.EMAMedium*c.EMASlackSell,
		snap.EMAMedium < snap.EMALong*c.EMASlackSell,
		snap.Volume > snap.VolumeSMA*c.VolumeFactor,
		snap.StochK > c.StochSellMin,
		snap.VolatilityPct < c.VolatilityCeiling,
	}
}

func countTrue(conditions []bool) int {
	n := 0

	for _, v := range conditions {
		if v {
			n++
		}
	}

	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
