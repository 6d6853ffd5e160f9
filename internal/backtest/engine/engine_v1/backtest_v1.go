// Package engine implements BacktestEngineV1: a single-threaded, fully
// deterministic replay of the signal, sizing, and lifecycle components over a
// historical candle feed. Identical inputs and configuration yield identical
// trade ledgers and metrics.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	backtest "github.com/meridian-lab/meridian-trading/internal/backtest/engine"
	"github.com/meridian-lab/meridian-trading/internal/backtest/engine/engine_v1/datasource"
	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/position"
	"github.com/meridian-lab/meridian-trading/internal/risk"
	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

type BacktestEngineV1 struct {
	config  BacktestEngineV1Config
	logger  *logger.Logger
	source  datasource.DataSource
	scorer  *strategy.Scorer
	sizer   *risk.Sizer
	manager *position.Manager

	initialized bool

	// nextID numbers positions within one run. Sequential ids keep two runs
	// over identical inputs byte-identical in the ledger, which random ids
	// would break.
	nextID int
}

// NewBacktestEngineV1 creates an engine. Initialize and SetDataSource must be
// called before Run.
func NewBacktestEngineV1() backtest.Engine {
	log, err := logger.NewLogger()
	if err != nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		logger: log,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	scorer, err := strategy.NewScorer(parsed.Strategy)
	if err != nil {
		return err
	}

	sizer, err := risk.NewSizer(parsed.Sizer)
	if err != nil {
		return err
	}

	manager, err := position.NewManager(parsed.Position)
	if err != nil {
		return err
	}

	b.config = parsed
	b.scorer = scorer
	b.sizer = sizer
	b.manager = manager
	b.initialized = true

	b.logger.Info("backtest engine initialized",
		zap.Float64("initial_capital", parsed.InitialCapital),
		zap.Int("leverage", parsed.Leverage),
		zap.Int("max_positions", parsed.MaxPositions))

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(source datasource.DataSource) error {
	if source == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "data source is nil")
	}

	b.source = source

	return nil
}

// Run implements engine.Engine. The replay is one pass over the feed; for
// each bar the lifecycle manager runs first against every open position of
// the bar's symbol, then the scorer and sizer may open a new position if a
// slot is free, then peak balance and drawdown are updated and a balance
// point recorded. Decisions for bar i only ever see candles up to i.
func (b *BacktestEngineV1) Run(ctx context.Context, onProcessData optional.Option[backtest.OnProcessDataCallback]) (types.Report, error) {
	if !b.initialized {
		return types.Report{}, errors.New(errors.ErrCodeBacktestStateNil, "engine is not initialized")
	}

	if b.source == nil {
		return types.Report{}, errors.New(errors.ErrCodeBacktestNoDatasource, "no data source configured")
	}

	total, err := b.source.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return types.Report{}, err
	}

	ledger, err := NewLedger(b.logger)
	if err != nil {
		return types.Report{}, err
	}
	defer ledger.Close()

	state := NewPortfolioState(b.config.InitialCapital, b.config.MaxPositions, b.config.MaxPositionsPerSymbol)
	b.nextID = 0

	lookback := b.config.Strategy.Indicator.MinLookback()
	windows := make(map[string][]types.Candle)
	history := make([]types.BalancePoint, 0, total)
	symbols := make(map[string]struct{})

	current := 0

	for candle, readErr := range b.source.ReadAll(b.config.StartTime, b.config.EndTime) {
		if readErr != nil {
			return types.Report{}, readErr
		}

		if err := ctx.Err(); err != nil {
			return types.Report{}, err
		}

		symbols[candle.Symbol] = struct{}{}

		window := append(windows[candle.Symbol], candle)
		if len(window) > lookback {
			window = window[len(window)-lookback:]
		}

		windows[candle.Symbol] = window

		snap, snapErr := indicator.ComputeSnapshot(window, b.config.Strategy.Indicator)
		if snapErr != nil && !errors.IsInsufficientDataError(snapErr) {
			return types.Report{}, snapErr
		}

		if err := b.evaluateOpenPositions(state, ledger, candle, snap); err != nil {
			return types.Report{}, err
		}

		if err := b.maybeOpenPosition(state, window, candle, snap); err != nil {
			return types.Report{}, err
		}

		balance, drawdown := state.MarkBar()
		history = append(history, types.BalancePoint{
			Time:     candle.Time,
			Balance:  balance,
			Drawdown: drawdown * 100,
		})

		current++

		if onProcessData.IsSome() {
			if err := onProcessData.Unwrap()(current, total); err != nil {
				return types.Report{}, err
			}
		}
	}

	return b.buildReport(state, ledger, history, symbols)
}

// evaluateOpenPositions runs the lifecycle manager against every open
// position of the bar's symbol, realizing closes and reductions.
func (b *BacktestEngineV1) evaluateOpenPositions(state *PortfolioState, ledger *Ledger, bar types.Candle, snap indicator.Snapshot) error {
	for _, pos := range state.OpenPositions(bar.Symbol) {
		verdict := b.manager.Evaluate(pos, bar, snap)
		if verdict.IsNone() {
			continue
		}

		decision := verdict.Unwrap()
		trade := types.NewTrade(pos, decision.Size, decision.Price, bar.Time, decision.Reason)

		if decision.Action == position.ActionReduce {
			// Partial reductions get their own ledger id; the open position
			// keeps the original.
			trade.ID = pos.ID + "-lock"

			if _, err := ledger.RecordTrade(trade); err != nil {
				return err
			}

			if err := state.ReducePosition(types.Trade{ID: pos.ID, Symbol: pos.Symbol, Size: decision.Size, PnL: trade.PnL}); err != nil {
				return err
			}

			b.logger.Debug("profit lock reduction",
				zap.String("position", pos.ID),
				zap.Float64("size", decision.Size),
				zap.Float64("pnl", trade.PnL))

			continue
		}

		if _, err := ledger.RecordTrade(trade); err != nil {
			return err
		}

		if err := state.ClosePosition(trade); err != nil {
			return err
		}

		b.logger.Debug("closed position",
			zap.String("position", pos.ID),
			zap.String("reason", string(decision.Reason)),
			zap.Float64("pnl", trade.PnL))
	}

	return nil
}

// maybeOpenPosition runs the scorer on the trailing window ending at the
// current bar and opens a position when a slot is free, the reward ratio
// clears the configured floor, and the sizer returns a positive size.
func (b *BacktestEngineV1) maybeOpenPosition(state *PortfolioState, window []types.Candle, bar types.Candle, snap indicator.Snapshot) error {
	snapshot := state.Snapshot(bar.Symbol)
	if !snapshot.SlotFree {
		return nil
	}

	decision, err := b.scorer.Evaluate(window)
	if err != nil {
		return err
	}

	if !decision.IsActionable() {
		return nil
	}

	riskDistance := decision.Price - decision.StopLoss
	rewardDistance := decision.TakeProfit - decision.Price

	if decision.Side == types.SideSell {
		riskDistance = decision.StopLoss - decision.Price
		rewardDistance = decision.Price - decision.TakeProfit
	}

	if riskDistance <= 0 || rewardDistance/riskDistance < b.config.MinRewardRatio {
		return nil
	}

	sizing := b.sizer.Size(snapshot.Balance, decision.Price, decision.StopLoss,
		snap.VolatilityPct, b.config.Leverage, snapshot.OpenPositions)
	if sizing.Size <= 0 {
		return nil
	}

	b.nextID++
	pos := types.Position{
		ID:         fmt.Sprintf("pos-%06d", b.nextID),
		Symbol:     bar.Symbol,
		Side:       decision.Side,
		EntryPrice: decision.Price,
		Size:       sizing.Size,
		StopLoss:   decision.StopLoss,
		TakeProfit: decision.TakeProfit,
		EntryTime:  bar.Time,
		State:      types.PositionStateOpen,
	}

	if err := state.OpenPosition(pos); err != nil {
		return err
	}

	b.logger.Debug("opened position",
		zap.String("position", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("side", string(pos.Side)),
		zap.Float64("size", pos.Size),
		zap.Float64("risk_amount", sizing.RiskAmount))

	return nil
}

// buildReport aggregates the ledger into the final report. When gross loss is
// zero the profit factor is +Inf for positive gross profit and 0 otherwise.
func (b *BacktestEngineV1) buildReport(state *PortfolioState, ledger *Ledger, history []types.BalancePoint, symbols map[string]struct{}) (types.Report, error) {
	stats, err := ledger.Stats()
	if err != nil {
		return types.Report{}, err
	}

	trades, err := ledger.Trades()
	if err != nil {
		return types.Report{}, err
	}

	report := types.Report{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Symbol:         singleSymbol(symbols),
		InitialBalance: b.config.InitialCapital,
		FinalBalance:   state.Balance(),
		TotalTrades:    stats.TotalTrades,
		WinningTrades:  stats.WinningTrades,
		LosingTrades:   stats.LosingTrades,
		GrossProfit:    stats.GrossProfit,
		GrossLoss:      stats.GrossLoss,
		ProfitFactor:   profitFactor(stats.GrossProfit, stats.GrossLoss),
		MaxDrawdownPct: state.MaxDrawdown() * 100,
		TradeLedger:    trades,
		BalanceHistory: history,
	}

	if b.config.InitialCapital > 0 {
		report.TotalReturnPct = (report.FinalBalance - b.config.InitialCapital) / b.config.InitialCapital * 100
	}

	if stats.TotalTrades > 0 {
		report.WinRatePct = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}

	return report, nil
}

func singleSymbol(symbols map[string]struct{}) string {
	if len(symbols) != 1 {
		return ""
	}

	for symbol := range symbols {
		return symbol
	}

	return ""
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}

		return 0
	}

	return grossProfit / grossLoss
}
