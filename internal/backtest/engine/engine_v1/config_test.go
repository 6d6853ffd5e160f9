package engine

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParseConfigFillsDefaults() {
	config, err := ParseConfig("initial_capital: 5000\n")
	suite.Require().NoError(err)

	suite.InDelta(5000.0, config.InitialCapital, 1e-9)
	suite.Equal(1, config.Leverage)
	suite.Equal(5, config.MaxPositions)
	suite.Equal(6, config.Strategy.BuyThreshold)
	suite.InDelta(0.001, config.Sizer.MinSize, 1e-12)
}

func (suite *ConfigTestSuite) TestParseConfigPartialStrategyBlock() {
	config, err := ParseConfig("initial_capital: 5000\nstrategy:\n  buy_threshold: 7\n")
	suite.Require().NoError(err)

	suite.Equal(7, config.Strategy.BuyThreshold)
	// Fields absent from the block keep their defaults instead of zeroing.
	suite.Equal(6, config.Strategy.SellThreshold)
	suite.InDelta(1.02, config.Strategy.BBBuyProximity, 1e-12)
}

func (suite *ConfigTestSuite) TestOutOfRangeValuesSaturate() {
	config, err := ParseConfig(`
initial_capital: 10000
leverage: 100
max_risk_per_trade: 2.0
min_reward_ratio: 0.5
max_positions: 2
max_positions_per_symbol: 10
`)
	suite.Require().NoError(err)

	suite.Equal(config.Sizer.MaxLeverage, config.Leverage)
	suite.InDelta(1.0, config.MaxRiskPerTrade, 1e-12)
	suite.InDelta(1.0, config.MinRewardRatio, 1e-12)
	suite.Equal(2, config.MaxPositionsPerSymbol)
}

func (suite *ConfigTestSuite) TestNegativeLeverageSaturatesToOne() {
	config, err := ParseConfig("initial_capital: 10000\nleverage: -3\n")
	suite.Require().NoError(err)
	suite.Equal(1, config.Leverage)
}

func (suite *ConfigTestSuite) TestZeroCapitalRejected() {
	_, err := ParseConfig("initial_capital: 0\n")
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestProfitLockPropagatesToManager() {
	config, err := ParseConfig(`
initial_capital: 10000
profit_lock:
  enabled: true
  threshold: 0.04
  lock_fraction: 0.25
`)
	suite.Require().NoError(err)

	suite.True(config.Position.ProfitLock.Enabled)
	suite.InDelta(0.04, config.Position.ProfitLock.Threshold, 1e-12)
	suite.InDelta(0.25, config.Position.ProfitLock.LockFraction, 1e-12)
}

func (suite *ConfigTestSuite) TestEngineRiskFractionDrivesSizer() {
	config, err := ParseConfig("initial_capital: 10000\nmax_risk_per_trade: 0.01\n")
	suite.Require().NoError(err)
	suite.InDelta(0.01, config.Sizer.MaxRiskPerTrade, 1e-12)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)
	suite.Contains(schema, "initial_capital")
	suite.Contains(schema, "backtest-engine-v1-config")
}
