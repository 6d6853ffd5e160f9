package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SizerTestSuite struct {
	suite.Suite

	sizer *Sizer
}

func TestSizerSuite(t *testing.T) {
	suite.Run(t, new(SizerTestSuite))
}

func (suite *SizerTestSuite) SetupTest() {
	sizer, err := NewSizer(DefaultConfig())
	suite.Require().NoError(err)
	suite.sizer = sizer
}

func (suite *SizerTestSuite) TestReferenceScenario() {
	// balance 10000, 1% risk, entry 100, stop 98, leverage 1:
	// riskPerUnit 2, risk budget 100, raw size 50, capped at
	// 10000*0.1*1/100 = 10.
	cfg := DefaultConfig()
	cfg.MaxRiskPerTrade = 0.01

	sizer, err := NewSizer(cfg)
	suite.Require().NoError(err)

	sizing := sizer.Size(10000, 100, 98, 1.0, 1, 0)
	suite.InDelta(10.0, sizing.Size, 1e-9)
	suite.InDelta(100.0, sizing.RiskAmount, 1e-9)
	suite.InDelta(1.0, sizing.RiskPercent, 1e-9)
}

func (suite *SizerTestSuite) TestDegenerateInputsReturnZero() {
	cases := []struct {
		name    string
		balance float64
		entry   float64
	}{
		{"zero balance", 0, 100},
		{"negative balance", -500, 100},
		{"zero entry", 10000, 0},
		{"negative entry", 10000, -1},
		{"nan balance", math.NaN(), 100},
		{"inf entry", 10000, math.Inf(1)},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			sizing := suite.sizer.Size(tc.balance, tc.entry, 98, 1.0, 1, 0)
			suite.Zero(sizing.Size)
			suite.Zero(sizing.RiskAmount)
		})
	}
}

func (suite *SizerTestSuite) TestDegenerateStopUsesFloor() {
	// Stop equal to entry floors the risk per unit at 0.1% of entry, so the
	// division never blows up and the cap still binds.
	sizing := suite.sizer.Size(10000, 100, 100, 1.0, 1, 0)
	suite.Greater(sizing.Size, 0.0)
	suite.LessOrEqual(sizing.Size, 10000*0.1/100+1e-9)
}

func (suite *SizerTestSuite) TestVolatilityDamping() {
	// A wide stop keeps the raw size below the notional cap so the damping
	// is visible in the final size.
	calm := suite.sizer.Size(10000, 100, 70, 2.0, 1, 0)
	volatile := suite.sizer.Size(10000, 100, 70, 5.0, 1, 0)

	suite.InDelta(2.0, calm.RiskPercent, 1e-9)
	suite.InDelta(1.0, volatile.RiskPercent, 1e-9)
	suite.Less(volatile.Size, calm.Size)
}

func (suite *SizerTestSuite) TestPerPositionDecrement() {
	none := suite.sizer.Size(10000, 100, 90, 1.0, 1, 0)
	three := suite.sizer.Size(10000, 100, 90, 1.0, 1, 3)

	suite.InDelta(2.0, none.RiskPercent, 1e-9)
	suite.InDelta(1.4, three.RiskPercent, 1e-9)
}

func (suite *SizerTestSuite) TestRiskFractionFloor() {
	// Twenty open positions would drive the fraction negative without the floor.
	sizing := suite.sizer.Size(10000, 100, 90, 1.0, 1, 20)
	suite.InDelta(0.2, sizing.RiskPercent, 1e-9)
}

func (suite *SizerTestSuite) TestLeverageSaturates() {
	under := suite.sizer.Size(10000, 100, 90, 1.0, -5, 0)
	over := suite.sizer.Size(10000, 100, 90, 1.0, 100, 0)
	max := suite.sizer.Size(10000, 100, 90, 1.0, 10, 0)

	suite.InDelta(suite.sizer.Size(10000, 100, 90, 1.0, 1, 0).Size, under.Size, 1e-9)
	suite.InDelta(max.Size, over.Size, 1e-9)
}

func (suite *SizerTestSuite) TestRiskBudgetNeverExceedsCap() {
	balances := []float64{120, 5000, 10000, 250000}
	entries := []float64{0.5, 10, 100, 42000}
	stops := []float64{0.49, 9, 98, 40000}

	for _, balance := range balances {
		for i, entry := range entries {
			sizing := suite.sizer.Size(balance, entry, stops[i], 2.0, 3, 1)
			suite.LessOrEqual(sizing.RiskAmount, balance*suite.sizer.Config().MaxRiskPerTrade*(1+1e-9))
		}
	}
}

func (suite *SizerTestSuite) TestRoundingIsDeterministic() {
	first := suite.sizer.Size(9999.77, 103.37, 101.11, 2.7, 3, 2)
	second := suite.sizer.Size(9999.77, 103.37, 101.11, 2.7, 3, 2)

	suite.Equal(first, second)

	scaled := first.Size * 1000
	suite.InDelta(math.Round(scaled), scaled, 1e-6)
}

func (suite *SizerTestSuite) TestMinimumSize() {
	// A tiny balance produces a cap below MinSize, so no position opens.
	sizing := suite.sizer.Size(0.5, 100, 98, 1.0, 1, 0)
	suite.Zero(sizing.Size)
}

func (suite *SizerTestSuite) TestConfigValidation() {
	cfg := DefaultConfig()
	cfg.MinRiskFraction = 0.5

	_, err := NewSizer(cfg)
	suite.Error(err)
}
