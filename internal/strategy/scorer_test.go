package strategy

import (
	"testing"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/stretchr/testify/suite"
)

type ScorerTestSuite struct {
	suite.Suite
}

func TestScorerSuite(t *testing.T) {
	suite.Run(t, new(ScorerTestSuite))
}

// oscillatingCandles returns a flat-close series with a fixed high/low spread
// so the ATR is nonzero while every close-based indicator stays flat.
func oscillatingCandles(n int, price, spread, volume float64) []types.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, n)

	for i := range candles {
		candles[i] = types.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Open:   price,
			High:   price + spread,
			Low:    price - spread,
			Close:  price,
			Volume: volume,
		}
	}

	return candles
}

func (suite *ScorerTestSuite) TestNewScorerRejectsInvalidConfig() {
	cfg := DefaultConfig()
	cfg.BuyThreshold = 0

	_, err := NewScorer(cfg)
	suite.Require().Error(err)
}

func (suite *ScorerTestSuite) TestEvaluateEmptyWindowHolds() {
	scorer, err := NewScorer(DefaultConfig())
	suite.Require().NoError(err)

	decision, err := scorer.Evaluate(nil)
	suite.Require().NoError(err)
	suite.Equal(types.SideHold, decision.Side)
}

func (suite *ScorerTestSuite) TestEvaluateInsufficientDataHolds() {
	scorer, err := NewScorer(DefaultConfig())
	suite.Require().NoError(err)

	candles := oscillatingCandles(30, 100, 1, 1000)

	decision, err := scorer.Evaluate(candles)
	suite.Require().NoError(err)
	suite.Equal(types.SideHold, decision.Side)
	suite.Equal("insufficient data", decision.Reason)
	suite.Equal("BTCUSDT", decision.Symbol)
}

func (suite *ScorerTestSuite) TestEvaluateBuyPrecedenceOverSell() {
	// A flat-close window with spread satisfies six buy and seven sell
	// conditions under the default preset; both thresholds are met and buy
	// must win the tie.
	scorer, err := NewScorer(DefaultConfig())
	suite.Require().NoError(err)

	candles := oscillatingCandles(250, 100, 1, 1000)

	decision, err := scorer.Evaluate(candles)
	suite.Require().NoError(err)
	suite.Require().Equal(types.SideBuy, decision.Side)
	suite.GreaterOrEqual(decision.BuyScore, scorer.Config().BuyThreshold)
	suite.GreaterOrEqual(decision.SellScore, scorer.Config().SellThreshold)

	// ATR = 2, volatility 2% clamps to multiplier 2: stop 4 below, take 6 above.
	suite.InDelta(96.0, decision.StopLoss, 1e-9)
	suite.InDelta(106.0, decision.TakeProfit, 1e-9)
	suite.Require().NoError(decision.Validate())
}

func (suite *ScorerTestSuite) TestEvaluateRiskGuardDowngradesToHold() {
	cfg := DefaultConfig()
	cfg.MaxRiskPct = 3.0

	scorer, err := NewScorer(cfg)
	suite.Require().NoError(err)

	// Stop distance 4 exceeds 3% of price 100.
	candles := oscillatingCandles(250, 100, 1, 1000)

	decision, err := scorer.Evaluate(candles)
	suite.Require().NoError(err)
	suite.Equal(types.SideHold, decision.Side)
	suite.Contains(decision.Reason, "exceeds")
}

func (suite *ScorerTestSuite) TestEvaluateZeroATRHolds() {
	scorer, err := NewScorer(DefaultConfig())
	suite.Require().NoError(err)

	// No high/low spread means zero ATR, so no valid stop layout exists.
	candles := oscillatingCandles(250, 100, 0, 1000)

	decision, err := scorer.Evaluate(candles)
	suite.Require().NoError(err)
	suite.Equal(types.SideHold, decision.Side)
}

func (suite *ScorerTestSuite) TestEvaluateConservativePresetHolds() {
	scorer, err := NewScorer(ConservativeConfig())
	suite.Require().NoError(err)

	candles := oscillatingCandles(250, 100, 1, 1000)

	decision, err := scorer.Evaluate(candles)
	suite.Require().NoError(err)
	suite.Equal(types.SideHold, decision.Side)
	suite.Less(decision.BuyScore, 7)
	suite.Less(decision.SellScore, 7)
}

func (suite *ScorerTestSuite) TestConditionListsHaveEightEntries() {
	scorer, err := NewScorer(DefaultConfig())
	suite.Require().NoError(err)

	snap := indicator.Snapshot{}
	suite.Len(scorer.buyConditions(snap), 8)
	suite.Len(scorer.sellConditions(snap), 8)
}

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaultConfigIsValid() {
	cfg := DefaultConfig()
	suite.NoError(cfg.Validate())
	suite.Equal(6, cfg.BuyThreshold)
	suite.Equal(6, cfg.SellThreshold)
}

func (suite *ConfigTestSuite) TestConservativeConfigIsValid() {
	cfg := ConservativeConfig()
	suite.NoError(cfg.Validate())
	suite.Equal(7, cfg.BuyThreshold)
	suite.Equal(7, cfg.SellThreshold)
	suite.InDelta(1.5, cfg.VolumeFactor, 1e-12)
}

func (suite *ConfigTestSuite) TestValidateRejectsInvertedMultipliers() {
	cfg := DefaultConfig()
	cfg.ATRMultiplierMin = 4.0
	cfg.ATRMultiplierMax = 2.0

	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestParseConfigOverridesDefaults() {
	cfg, err := ParseConfig("buy_threshold: 7\nreward_ratio: 2.5\n")
	suite.Require().NoError(err)
	suite.Equal(7, cfg.BuyThreshold)
	suite.InDelta(2.5, cfg.RewardRatio, 1e-12)
	// Untouched fields keep their defaults.
	suite.Equal(6, cfg.SellThreshold)
}

func (suite *ConfigTestSuite) TestParseConfigRejectsBadYaml() {
	_, err := ParseConfig(": not yaml")
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	cfg := DefaultConfig()

	schema, err := cfg.GenerateSchemaJSON()
	suite.Require().NoError(err)
	suite.Contains(schema, "buy_threshold")
	suite.Contains(schema, "strategy-config")
}
