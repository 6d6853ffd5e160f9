package strategy

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v2"

	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Config parameterizes the signal scorer. The entry predicates and their
// thresholds are data, not code paths: preset variants differ only in the
// values below.
type Config struct {
	Indicator indicator.Params `yaml:"indicator" json:"indicator"`

	// BuyThreshold and SellThreshold are the minimum number of satisfied
	// conditions (out of 8 per side) required to emit a buy or sell decision.
	BuyThreshold  int `yaml:"buy_threshold" json:"buy_threshold" validate:"gte=1,lte=8" jsonschema:"title=Buy Threshold,minimum=1,maximum=8"`
	SellThreshold int `yaml:"sell_threshold" json:"sell_threshold" validate:"gte=1,lte=8" jsonschema:"title=Sell Threshold,minimum=1,maximum=8"`

	// Bollinger proximity factors: buy fires when close < lower*BBBuyProximity,
	// sell when close > upper*BBSellProximity.
	BBBuyProximity  float64 `yaml:"bb_buy_proximity" json:"bb_buy_proximity" validate:"gt=0"`
	BBSellProximity float64 `yaml:"bb_sell_proximity" json:"bb_sell_proximity" validate:"gt=0"`

	RSIBuyMax  float64 `yaml:"rsi_buy_max" json:"rsi_buy_max" validate:"gte=0,lte=100"`
	RSISellMin float64 `yaml:"rsi_sell_min" json:"rsi_sell_min" validate:"gte=0,lte=100"`

	// MACD histogram bounds: buy fires when hist > MACDHistBuyMin, sell when
	// hist < MACDHistSellMax.
	MACDHistBuyMin  float64 `yaml:"macd_hist_buy_min" json:"macd_hist_buy_min"`
	MACDHistSellMax float64 `yaml:"macd_hist_sell_max" json:"macd_hist_sell_max"`

	// EMA slack factors: buy fires when emaShort > emaMedium*EMASlackBuy and
	// when emaMedium > emaLong*EMASlackBuy; sell is mirrored with EMASlackSell.
	EMASlackBuy  float64 `yaml:"ema_slack_buy" json:"ema_slack_buy" validate:"gt=0"`
	EMASlackSell float64 `yaml:"ema_slack_sell" json:"ema_slack_sell" validate:"gt=0"`

	// VolumeFactor gates both sides: volume > volumeSMA*VolumeFactor.
	VolumeFactor float64 `yaml:"volume_factor" json:"volume_factor" validate:"gt=0"`

	StochBuyMax  float64 `yaml:"stoch_buy_max" json:"stoch_buy_max" validate:"gte=0,lte=100"`
	StochSellMin float64 `yaml:"stoch_sell_min" json:"stoch_sell_min" validate:"gte=0,lte=100"`

	// VolatilityCeiling gates both sides: volatilityPct < VolatilityCeiling.
	VolatilityCeiling float64 `yaml:"volatility_ceiling" json:"volatility_ceiling" validate:"gt=0"`

	// Stop/take placement: atrMultiplier = clamp(volatilityPct, min, max),
	// stopDistance = atrMultiplier*ATR, takeDistance = stopDistance*RewardRatio.
	ATRMultiplierMin float64 `yaml:"atr_multiplier_min" json:"atr_multiplier_min" validate:"gt=0"`
	ATRMultiplierMax float64 `yaml:"atr_multiplier_max" json:"atr_multiplier_max" validate:"gt=0"`
	RewardRatio      float64 `yaml:"reward_ratio" json:"reward_ratio" validate:"gt=0"`

	// MaxRiskPct downgrades a decision to hold when the stop distance exceeds
	// this percentage of price.
	MaxRiskPct float64 `yaml:"max_risk_pct" json:"max_risk_pct" validate:"gt=0,lte=100"`
}

// DefaultConfig returns the baseline preset: 6 of 8 confirmations per side
// with mean-reversion oriented RSI/stochastic bounds.
func DefaultConfig() Config {
	return Config{
		Indicator:         indicator.DefaultParams(),
		BuyThreshold:      6,
		SellThreshold:     6,
		BBBuyProximity:    1.02,
		BBSellProximity:   0.98,
		RSIBuyMax:         40,
		RSISellMin:        60,
		MACDHistBuyMin:    -0.001,
		MACDHistSellMax:   0.001,
		EMASlackBuy:       0.98,
		EMASlackSell:      1.02,
		VolumeFactor:      0.9,
		StochBuyMax:       30,
		StochSellMin:      70,
		VolatilityCeiling: 5.0,
		ATRMultiplierMin:  1.5,
		ATRMultiplierMax:  3.0,
		RewardRatio:       1.5,
		MaxRiskPct:        5.0,
	}
}

// ConservativeConfig returns the stricter preset: 7 of 8 confirmations,
// tighter RSI bounds, a real volume surge requirement, and a lower volatility
// ceiling.
func ConservativeConfig() Config {
	cfg := DefaultConfig()
	cfg.BuyThreshold = 7
	cfg.SellThreshold = 7
	cfg.RSIBuyMax = 35
	cfg.RSISellMin = 70
	cfg.VolumeFactor = 1.5
	cfg.VolatilityCeiling = 3.0

	return cfg
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

// Validate checks the config against its struct tags plus cross-field rules
// the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	if c.ATRMultiplierMin > c.ATRMultiplierMax {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"atr_multiplier_min %f exceeds atr_multiplier_max %f", c.ATRMultiplierMin, c.ATRMultiplierMax)
	}

	if c.Indicator.MinLookback() <= 0 {
		return errors.New(errors.ErrCodeStrategyConfigError, "indicator params produce a zero lookback")
	}

	return nil
}

// ParseConfig unmarshals a yaml config string, filling unset fields from
// DefaultConfig.
func ParseConfig(raw string) (Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse strategy config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GenerateSchemaJSON generates a JSON schema string for the strategy config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "strategy-config"
	schema.Description = "Configuration schema for the signal scorer"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
