package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
)

type LedgerTestSuite struct {
	suite.Suite

	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupTest() {
	ledger, err := NewLedger(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ledger = ledger
}

func (suite *LedgerTestSuite) TearDownTest() {
	suite.NoError(suite.ledger.Close())
}

func (suite *LedgerTestSuite) recordTrade(id string, pnl float64, exit time.Time) {
	_, err := suite.ledger.RecordTrade(types.Trade{
		ID:         id,
		Symbol:     "BTCUSDT",
		Side:       types.SideBuy,
		EntryPrice: 100,
		ExitPrice:  100 + pnl,
		Size:       1,
		EntryTime:  exit.Add(-time.Hour),
		ExitTime:   exit,
		PnL:        pnl,
		Reason:     types.CloseReasonTakeProfit,
	})
	suite.Require().NoError(err)
}

func (suite *LedgerTestSuite) TestEmptyLedgerStats() {
	stats, err := suite.ledger.Stats()
	suite.Require().NoError(err)
	suite.Zero(stats.TotalTrades)
	suite.Zero(stats.GrossProfit)
	suite.Zero(stats.GrossLoss)

	trades, err := suite.ledger.Trades()
	suite.Require().NoError(err)
	suite.Empty(trades)
}

func (suite *LedgerTestSuite) TestStatsAggregation() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.recordTrade("t1", 50, base)
	suite.recordTrade("t2", -20, base.Add(time.Hour))
	suite.recordTrade("t3", 30, base.Add(2*time.Hour))
	suite.recordTrade("t4", -10, base.Add(3*time.Hour))

	stats, err := suite.ledger.Stats()
	suite.Require().NoError(err)
	suite.Equal(4, stats.TotalTrades)
	suite.Equal(2, stats.WinningTrades)
	suite.Equal(2, stats.LosingTrades)
	suite.InDelta(80.0, stats.GrossProfit, 1e-9)
	suite.InDelta(30.0, stats.GrossLoss, 1e-9)
	suite.InDelta(50.0, stats.MaxPnL, 1e-9)
	suite.InDelta(-20.0, stats.MinPnL, 1e-9)
}

func (suite *LedgerTestSuite) TestTradesOrderedByExitTime() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.recordTrade("late", 10, base.Add(5*time.Hour))
	suite.recordTrade("early", 10, base)

	trades, err := suite.ledger.Trades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal("early", trades[0].ID)
	suite.Equal("late", trades[1].ID)
}

func (suite *LedgerTestSuite) TestMissingIDGetsGenerated() {
	trade, err := suite.ledger.RecordTrade(types.Trade{
		Symbol:    "BTCUSDT",
		Side:      types.SideSell,
		Size:      1,
		EntryTime: time.Now(),
		ExitTime:  time.Now(),
		Reason:    types.CloseReasonManual,
	})
	suite.Require().NoError(err)
	suite.NotEmpty(trade.ID)
}

func (suite *LedgerTestSuite) TestProfitFactorRule() {
	suite.InDelta(2.5, profitFactor(50, 20), 1e-9)
	suite.True(math.IsInf(profitFactor(50, 0), 1))
	suite.Zero(profitFactor(0, 0))
}
