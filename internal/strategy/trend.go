package strategy

import (
	"github.com/meridian-lab/meridian-trading/internal/indicator"
)

type TrendDirection string

const (
	TrendBullish TrendDirection = "bullish"
	TrendBearish TrendDirection = "bearish"
	TrendNeutral TrendDirection = "neutral"
)

// Trend is a multi-indicator read of the market direction. Confirmations
// counts how many of the five checks agree with the direction; Strength is
// the relative EMA spread capped at 1.
type Trend struct {
	Direction     TrendDirection
	Confirmations int
	Strength      float64
}

// minDirectionConfirmations is how many checks must agree before a direction
// is declared instead of neutral.
const minDirectionConfirmations = 4

// volumeSurgeFactor marks volume as confirming when it exceeds its moving
// average by this factor.
const volumeSurgeFactor = 1.5

// TrendOf derives the trend from an indicator snapshot. Five checks are
// counted per side: EMA stack alignment, momentum sign, RSI holding the
// 40..60 mid-band, MACD histogram growing in the trend direction, and a
// volume surge. The side with more confirmations wins; below
// minDirectionConfirmations the trend is neutral with the stronger side's
// count reported.
func TrendOf(snap indicator.Snapshot) Trend {
	bullish := countTrue([]bool{
		snap.EMAShort > snap.EMAMedium && snap.EMAMedium > snap.EMALong,
		snap.MomentumPct > 0,
		snap.RSI > 40 && snap.RSI < 60,
		snap.MACDHist > 0 && snap.MACDHist > snap.MACDHistPrev,
		snap.Volume > snap.VolumeSMA*volumeSurgeFactor,
	})

	bearish := countTrue([]bool{
		snap.EMAShort < snap.EMAMedium && snap.EMAMedium < snap.EMALong,
		snap.MomentumPct < 0,
		snap.RSI > 40 && snap.RSI < 60,
		snap.MACDHist < 0 && snap.MACDHist < snap.MACDHistPrev,
		snap.Volume > snap.VolumeSMA*volumeSurgeFactor,
	})

	trend := Trend{Direction: TrendNeutral}

	if bullish >= bearish {
		trend.Confirmations = bullish
	} else {
		trend.Confirmations = bearish
	}

	switch {
	case bullish >= minDirectionConfirmations && snap.Close > snap.EMAShort:
		trend.Direction = TrendBullish
		trend.Confirmations = bullish

		if snap.EMAMedium > 0 {
			trend.Strength = min((snap.EMAShort-snap.EMAMedium)/snap.EMAMedium, 1)
		}
	case bearish >= minDirectionConfirmations && snap.Close < snap.EMAShort:
		trend.Direction = TrendBearish
		trend.Confirmations = bearish

		if snap.EMAMedium > 0 {
			trend.Strength = min((snap.EMAMedium-snap.EMAShort)/snap.EMAMedium, 1)
		}
	}

	return trend
}
