package indicator

import (
	"testing"
	"time"

	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SnapshotTestSuite struct {
	suite.Suite
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotTestSuite))
}

func flatCandles(n int, price, volume float64) []types.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, n)

	for i := range candles {
		candles[i] = types.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
		}
	}

	return candles
}

func (suite *SnapshotTestSuite) TestMinLookbackDefaults() {
	p := DefaultParams()
	suite.Equal(200, p.MinLookback())
}

func (suite *SnapshotTestSuite) TestMinLookbackDominatedByMACD() {
	p := DefaultParams()
	p.EMATrend = 10
	suite.Equal(p.MACDSlow+p.MACDSig, p.MinLookback())
}

func (suite *SnapshotTestSuite) TestComputeSnapshotFlatSeries() {
	candles := flatCandles(250, 100, 1000)

	snap, err := ComputeSnapshot(candles, DefaultParams())
	suite.Require().NoError(err)

	suite.InDelta(100.0, snap.Close, 1e-12)
	suite.InDelta(1000.0, snap.Volume, 1e-12)
	suite.InDelta(100.0, snap.EMAShort, 1e-12)
	suite.InDelta(100.0, snap.EMAMedium, 1e-12)
	suite.InDelta(100.0, snap.EMALong, 1e-12)
	suite.InDelta(100.0, snap.EMATrend, 1e-12)
	suite.InDelta(100.0, snap.RSI, 1e-12)
	suite.InDelta(0.0, snap.MACD, 1e-12)
	suite.InDelta(0.0, snap.MACDSignal, 1e-12)
	suite.InDelta(0.0, snap.MACDHist, 1e-12)
	suite.InDelta(100.0, snap.BBUpper, 1e-12)
	suite.InDelta(100.0, snap.BBMiddle, 1e-12)
	suite.InDelta(100.0, snap.BBLower, 1e-12)
	suite.InDelta(0.0, snap.ATR, 1e-12)
	suite.InDelta(50.0, snap.StochK, 1e-12)
	suite.InDelta(50.0, snap.StochD, 1e-12)
	suite.InDelta(1000.0, snap.VolumeSMA, 1e-12)
	suite.InDelta(0.0, snap.AvgDev, 1e-12)
	suite.InDelta(0.0, snap.VolatilityPct, 1e-12)
	suite.InDelta(0.0, snap.MomentumPct, 1e-12)
}

func (suite *SnapshotTestSuite) TestComputeSnapshotMomentum() {
	candles := flatCandles(250, 100, 1000)

	// Raise the last bar 5% above the bar five steps back.
	last := len(candles) - 1
	candles[last].Close = 105
	candles[last].High = 105

	snap, err := ComputeSnapshot(candles, DefaultParams())
	suite.Require().NoError(err)
	suite.InDelta(5.0, snap.MomentumPct, 1e-9)
}

func (suite *SnapshotTestSuite) TestComputeSnapshotInsufficientData() {
	candles := flatCandles(50, 100, 1000)

	_, err := ComputeSnapshot(candles, DefaultParams())
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))

	var insufficientErr *errors.InsufficientDataError
	suite.Require().ErrorAs(err, &insufficientErr)
	suite.Equal(200, insufficientErr.Required)
	suite.Equal(50, insufficientErr.Actual)
	suite.Equal("BTCUSDT", insufficientErr.Symbol)
}

func (suite *SnapshotTestSuite) TestComputeSnapshotValuesAreFinite() {
	candles := flatCandles(250, 0, 0)

	// A degenerate all-zero series must still produce finite outputs.
	snap, err := ComputeSnapshot(candles, DefaultParams())
	suite.Require().NoError(err)
	suite.InDelta(0.0, snap.Close, 1e-12)
	suite.InDelta(0.0, snap.VolatilityPct, 1e-12)
	suite.InDelta(0.0, snap.MomentumPct, 1e-12)
}
