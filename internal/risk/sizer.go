// Package risk converts a trading decision into a bounded position size.
// All sizing is deterministic: the same inputs always produce the same size,
// and degenerate inputs produce a zero size instead of an error.
package risk

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Config bounds the sizer. Out-of-range leverage and risk fractions are
// clamped at use, never rejected (saturating policy).
type Config struct {
	// MaxRiskPerTrade is the fraction of balance risked on one trade before
	// reductions.
	MaxRiskPerTrade float64 `yaml:"max_risk_per_trade" json:"max_risk_per_trade" validate:"gt=0,lte=1"`
	// VolatilityThreshold is the volatility percentage above which the risk
	// fraction is damped.
	VolatilityThreshold float64 `yaml:"volatility_threshold" json:"volatility_threshold" validate:"gt=0"`
	// VolatilityDamping multiplies the risk fraction when volatility exceeds
	// the threshold.
	VolatilityDamping float64 `yaml:"volatility_damping" json:"volatility_damping" validate:"gt=0,lte=1"`
	// PerPositionDecrement is subtracted from the risk fraction for each
	// already-open position.
	PerPositionDecrement float64 `yaml:"per_position_decrement" json:"per_position_decrement" validate:"gte=0"`
	// MinRiskFraction floors the risk fraction after all reductions.
	MinRiskFraction float64 `yaml:"min_risk_fraction" json:"min_risk_fraction" validate:"gt=0"`
	// MaxLeverage caps the leverage multiplier; values outside [1, MaxLeverage]
	// saturate.
	MaxLeverage int `yaml:"max_leverage" json:"max_leverage" validate:"gte=1"`
	// MaxPositionFraction caps position notional at
	// balance*MaxPositionFraction*leverage.
	MaxPositionFraction float64 `yaml:"max_position_fraction" json:"max_position_fraction" validate:"gt=0,lte=1"`
	// MinSize is the exchange minimum order size.
	MinSize float64 `yaml:"min_size" json:"min_size" validate:"gt=0"`
	// Precision is the number of decimal places sizes are rounded to.
	Precision int32 `yaml:"precision" json:"precision" validate:"gte=0"`
}

// DefaultConfig returns the baseline sizing parameters.
func DefaultConfig() Config {
	return Config{
		MaxRiskPerTrade:      0.02,
		VolatilityThreshold:  3.0,
		VolatilityDamping:    0.5,
		PerPositionDecrement: 0.002,
		MinRiskFraction:      0.002,
		MaxLeverage:          10,
		MaxPositionFraction:  0.1,
		MinSize:              0.001,
		Precision:            3,
	}
}

// UnmarshalYAML overlays the document onto DefaultConfig so a partial yaml
// block stays runnable.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig Config

	raw := rawConfig(DefaultConfig())
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*c = Config(raw)

	return nil
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid sizer config", err)
	}

	if c.MinRiskFraction > c.MaxRiskPerTrade {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"min_risk_fraction %f exceeds max_risk_per_trade %f", c.MinRiskFraction, c.MaxRiskPerTrade)
	}

	return nil
}

// Sizing is the result of one size calculation. RiskAmount is the dollar risk
// budget allocated to the trade (balance times the effective risk fraction);
// RiskPercent is that fraction as a percentage.
type Sizing struct {
	Size        float64
	RiskAmount  float64
	RiskPercent float64
}

// Sizer computes bounded position sizes. It is stateless and safe for
// concurrent use.
type Sizer struct {
	config Config
}

// NewSizer creates a Sizer with a validated config.
func NewSizer(config Config) (*Sizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Sizer{config: config}, nil
}

// Config returns the sizer's configuration.
func (s *Sizer) Config() Config {
	return s.config
}

// Size converts balance, entry, stop distance, volatility, leverage, and the
// open-position count into a position size. The risk fraction starts at
// MaxRiskPerTrade, is damped when volatility exceeds the threshold, reduced
// per open position, and floored at MinRiskFraction. The stop distance is
// floored at 0.1% of entry so a degenerate stop cannot blow up the division.
//
// Non-positive balance or entry returns a zero Sizing with a nil error.
func (s *Sizer) Size(balance, entryPrice, stopLoss, volatilityPct float64, leverage, openPositions int) Sizing {
	if balance <= 0 || entryPrice <= 0 ||
		math.IsNaN(balance) || math.IsInf(balance, 0) ||
		math.IsNaN(entryPrice) || math.IsInf(entryPrice, 0) {
		return Sizing{}
	}

	riskFraction := s.config.MaxRiskPerTrade

	if volatilityPct > s.config.VolatilityThreshold {
		riskFraction *= s.config.VolatilityDamping
	}

	riskFraction -= s.config.PerPositionDecrement * float64(openPositions)
	if riskFraction < s.config.MinRiskFraction {
		riskFraction = s.config.MinRiskFraction
	}

	lev := clampLeverage(leverage, s.config.MaxLeverage)

	riskPerUnit := math.Abs(entryPrice - stopLoss)
	if floor := entryPrice * 0.001; riskPerUnit < floor {
		riskPerUnit = floor
	}

	riskAmount := balance * riskFraction
	raw := riskAmount / riskPerUnit * float64(lev)

	maxSize := balance * s.config.MaxPositionFraction * float64(lev) / entryPrice
	if maxSize < s.config.MinSize {
		return Sizing{}
	}

	size := raw
	if size > maxSize {
		size = maxSize
	}

	if size < s.config.MinSize {
		size = s.config.MinSize
	}

	size, _ = decimal.NewFromFloat(size).RoundBank(s.config.Precision).Float64()
	if size <= 0 {
		return Sizing{}
	}

	return Sizing{
		Size:        size,
		RiskAmount:  riskAmount,
		RiskPercent: riskFraction * 100,
	}
}

// clampLeverage saturates leverage into [1, max].
func clampLeverage(leverage, max int) int {
	if leverage < 1 {
		return 1
	}

	if leverage > max {
		return max
	}

	return leverage
}
