package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v2"

	"github.com/meridian-lab/meridian-trading/internal/position"
	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// BacktestEngineV1Config is the full replay configuration. Out-of-range
// numeric fields saturate to their bounds in Normalize rather than failing,
// so a sloppy config still produces a run (ConfigurationOutOfRange policy).
type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the replay in USD,minimum=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the replay period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the replay period"`

	Leverage              int     `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,minimum=1"`
	MaxRiskPerTrade       float64 `yaml:"max_risk_per_trade" json:"max_risk_per_trade" jsonschema:"title=Max Risk Per Trade,description=Fraction of balance risked per trade"`
	MinRewardRatio        float64 `yaml:"min_reward_ratio" json:"min_reward_ratio" jsonschema:"title=Min Reward Ratio,description=Minimum take distance over stop distance to open"`
	MaxPositions          int     `yaml:"max_positions" json:"max_positions" jsonschema:"title=Max Positions,minimum=1"`
	MaxPositionsPerSymbol int     `yaml:"max_positions_per_symbol" json:"max_positions_per_symbol" jsonschema:"title=Max Positions Per Symbol,minimum=1"`

	Strategy   strategy.Config           `yaml:"strategy" json:"strategy"`
	Sizer      risk.Config               `yaml:"sizer" json:"sizer"`
	Position   position.Config           `yaml:"position" json:"position"`
	ProfitLock position.ProfitLockConfig `yaml:"profit_lock" json:"profit_lock"`
}

// UnmarshalYAML fills unset fields from DefaultConfig before overlaying the
// document, so a partial yaml config stays runnable.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		InitialCapital        *float64                   `yaml:"initial_capital"`
		StartTime             *time.Time                 `yaml:"start_time"`
		EndTime               *time.Time                 `yaml:"end_time"`
		Leverage              *int                       `yaml:"leverage"`
		MaxRiskPerTrade       *float64                   `yaml:"max_risk_per_trade"`
		MinRewardRatio        *float64                   `yaml:"min_reward_ratio"`
		MaxPositions          *int                       `yaml:"max_positions"`
		MaxPositionsPerSymbol *int                       `yaml:"max_positions_per_symbol"`
		Strategy              *strategy.Config           `yaml:"strategy"`
		Sizer                 *risk.Config               `yaml:"sizer"`
		Position              *position.Config           `yaml:"position"`
		ProfitLock            *position.ProfitLockConfig `yaml:"profit_lock"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*c = DefaultConfig()

	if raw.InitialCapital != nil {
		c.InitialCapital = *raw.InitialCapital
	}

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	if raw.Leverage != nil {
		c.Leverage = *raw.Leverage
	}

	if raw.MaxRiskPerTrade != nil {
		c.MaxRiskPerTrade = *raw.MaxRiskPerTrade
	}

	if raw.MinRewardRatio != nil {
		c.MinRewardRatio = *raw.MinRewardRatio
	}

	if raw.MaxPositions != nil {
		c.MaxPositions = *raw.MaxPositions
	}

	if raw.MaxPositionsPerSymbol != nil {
		c.MaxPositionsPerSymbol = *raw.MaxPositionsPerSymbol
	}

	if raw.Strategy != nil {
		c.Strategy = *raw.Strategy
	}

	if raw.Sizer != nil {
		c.Sizer = *raw.Sizer
	}

	if raw.Position != nil {
		c.Position = *raw.Position
	}

	if raw.ProfitLock != nil {
		c.ProfitLock = *raw.ProfitLock
	}

	return nil
}

// DefaultConfig returns a runnable baseline configuration.
func DefaultConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:        10000,
		StartTime:             optional.None[time.Time](),
		EndTime:               optional.None[time.Time](),
		Leverage:              1,
		MaxRiskPerTrade:       0.02,
		MinRewardRatio:        1.5,
		MaxPositions:          5,
		MaxPositionsPerSymbol: 1,
		Strategy:              strategy.DefaultConfig(),
		Sizer:                 risk.DefaultConfig(),
		Position:              position.DefaultConfig(),
		ProfitLock:            position.DefaultConfig().ProfitLock,
	}
}

// Normalize clamps out-of-range values to their nearest bound. Saturating,
// never failing.
func (c *BacktestEngineV1Config) Normalize() {
	if c.Leverage < 1 {
		c.Leverage = 1
	}

	if c.Leverage > c.Sizer.MaxLeverage {
		c.Leverage = c.Sizer.MaxLeverage
	}

	if c.MaxRiskPerTrade <= 0 {
		c.MaxRiskPerTrade = risk.DefaultConfig().MaxRiskPerTrade
	}

	if c.MaxRiskPerTrade > 1 {
		c.MaxRiskPerTrade = 1
	}

	if c.MinRewardRatio < 1 {
		c.MinRewardRatio = 1
	}

	if c.MaxPositions < 1 {
		c.MaxPositions = 1
	}

	if c.MaxPositionsPerSymbol < 1 {
		c.MaxPositionsPerSymbol = 1
	}

	if c.MaxPositionsPerSymbol > c.MaxPositions {
		c.MaxPositionsPerSymbol = c.MaxPositions
	}

	// The engine-level risk fraction drives the sizer.
	c.Sizer.MaxRiskPerTrade = c.MaxRiskPerTrade
	if c.Sizer.MinRiskFraction > c.Sizer.MaxRiskPerTrade {
		c.Sizer.MinRiskFraction = c.Sizer.MaxRiskPerTrade
	}

	// The profit lock block configures the position manager.
	c.Position.ProfitLock = c.ProfitLock
}

// Validate checks the normalized config.
func (c *BacktestEngineV1Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "initial_capital must be positive, got %f", c.InitialCapital)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	if err := c.Sizer.Validate(); err != nil {
		return err
	}

	return c.Position.Validate()
}

// ParseConfig unmarshals and normalizes a yaml engine config.
func ParseConfig(raw string) (BacktestEngineV1Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(raw), &config); err != nil {
		return BacktestEngineV1Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	config.Normalize()

	if err := config.Validate(); err != nil {
		return BacktestEngineV1Config{}, err
	}

	return config, nil
}

// GenerateSchemaJSON generates a JSON schema string for the engine config.
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
