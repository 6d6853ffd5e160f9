package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DecisionTestSuite struct {
	suite.Suite
}

func TestDecisionSuite(t *testing.T) {
	suite.Run(t, new(DecisionTestSuite))
}

func (suite *DecisionTestSuite) TestHold() {
	d := Hold("BTCUSDT", 100, time.Now(), "insufficient data")
	suite.Equal(SideHold, d.Side)
	suite.False(d.IsActionable())
	suite.NoError(d.Validate())
}

func (suite *DecisionTestSuite) TestValidate() {
	tests := []struct {
		name     string
		decision Decision
		wantErr  bool
	}{
		{
			"valid buy",
			Decision{Symbol: "BTCUSDT", Side: SideBuy, Price: 100, StopLoss: 98, TakeProfit: 106},
			false,
		},
		{
			"valid sell",
			Decision{Symbol: "BTCUSDT", Side: SideSell, Price: 100, StopLoss: 102, TakeProfit: 94},
			false,
		},
		{
			"buy with inverted levels",
			Decision{Symbol: "BTCUSDT", Side: SideBuy, Price: 100, StopLoss: 102, TakeProfit: 94},
			true,
		},
		{
			"sell with buy-shaped levels",
			Decision{Symbol: "BTCUSDT", Side: SideSell, Price: 100, StopLoss: 98, TakeProfit: 106},
			true,
		},
		{
			"missing symbol",
			Decision{Side: SideBuy, Price: 100, StopLoss: 98, TakeProfit: 106},
			true,
		},
		{
			"unknown side",
			Decision{Symbol: "BTCUSDT", Side: Side("short"), Price: 100},
			true,
		},
		{
			"NaN price",
			Decision{Symbol: "BTCUSDT", Side: SideBuy, Price: math.NaN(), StopLoss: 98, TakeProfit: 106},
			true,
		},
		{
			"infinite take profit",
			Decision{Symbol: "BTCUSDT", Side: SideBuy, Price: 100, StopLoss: 98, TakeProfit: math.Inf(1)},
			true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.decision.Validate()
			if tc.wantErr {
				suite.Error(err)
			} else {
				suite.NoError(err)
			}
		})
	}
}
