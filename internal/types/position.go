package types

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

type PositionState string

const (
	PositionStateOpen   PositionState = "OPEN"
	PositionStateClosed PositionState = "CLOSED"
)

// CloseReason identifies the rule that closed a position.
type CloseReason string

const (
	CloseReasonStopLoss      CloseReason = "stop_loss"
	CloseReasonTakeProfit    CloseReason = "take_profit"
	CloseReasonTrailingStop  CloseReason = "trailing_stop"
	CloseReasonTrendReversal CloseReason = "trend_reversal"
	CloseReasonMaxLoss       CloseReason = "max_loss"
	CloseReasonManual        CloseReason = "manual"
	// CloseReasonProfitLock marks the partial size reduction performed by the
	// opt-in profit lock extension. It never fully closes a position.
	CloseReasonProfitLock CloseReason = "profit_lock"
)

// Position is an open holding. It is created by the replay engine (or a live
// scheduler) from an actionable Decision and mutated only by the position
// lifecycle manager.
type Position struct {
	ID         string        `csv:"id" yaml:"id"`
	Symbol     string        `csv:"symbol" yaml:"symbol"`
	Side       Side          `csv:"side" yaml:"side"`
	EntryPrice float64       `csv:"entry_price" yaml:"entry_price"`
	Size       float64       `csv:"size" yaml:"size"`
	StopLoss   float64       `csv:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64       `csv:"take_profit" yaml:"take_profit"`
	EntryTime  time.Time     `csv:"entry_time" yaml:"entry_time"`
	State      PositionState `csv:"state" yaml:"state"`
	// ProfitLocked is set after the profit lock extension has reduced the
	// position once, so the reduction is never applied twice.
	ProfitLocked bool `csv:"profit_locked" yaml:"profit_locked"`
}

// Validate checks the creation invariants: positive size and price, and the
// stop/take ordering for the position side.
func (p *Position) Validate() error {
	if p.Size <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPosition, "position size must be positive, got %f", p.Size)
	}

	if p.EntryPrice <= 0 || math.IsNaN(p.EntryPrice) || math.IsInf(p.EntryPrice, 0) {
		return errors.Newf(errors.ErrCodeInvalidPosition, "position entry price must be positive and finite, got %f", p.EntryPrice)
	}

	switch p.Side {
	case SideBuy:
		if !(p.StopLoss < p.EntryPrice && p.EntryPrice < p.TakeProfit) {
			return errors.Newf(errors.ErrCodeInvalidStopLoss,
				"buy position requires stop_loss < entry < take_profit, got %f/%f/%f",
				p.StopLoss, p.EntryPrice, p.TakeProfit)
		}
	case SideSell:
		if !(p.TakeProfit < p.EntryPrice && p.EntryPrice < p.StopLoss) {
			return errors.Newf(errors.ErrCodeInvalidStopLoss,
				"sell position requires take_profit < entry < stop_loss, got %f/%f/%f",
				p.TakeProfit, p.EntryPrice, p.StopLoss)
		}
	default:
		return errors.Newf(errors.ErrCodeInvalidPosition, "position side must be buy or sell, got %s", p.Side)
	}

	return nil
}

// UnrealizedPnL returns size*(price-entry) for buy positions and
// size*(entry-price) for sell positions, computed with decimal arithmetic.
func (p *Position) UnrealizedPnL(price float64) float64 {
	sizeDec := decimal.NewFromFloat(p.Size)
	entryDec := decimal.NewFromFloat(p.EntryPrice)
	priceDec := decimal.NewFromFloat(price)

	var pnlDec decimal.Decimal
	if p.Side == SideSell {
		pnlDec = sizeDec.Mul(entryDec.Sub(priceDec))
	} else {
		pnlDec = sizeDec.Mul(priceDec.Sub(entryDec))
	}

	pnl, _ := pnlDec.Float64()

	return pnl
}

// UnrealizedPnLPct returns the unrealized profit or loss as a fraction of the
// entry price (0.02 means +2%).
func (p *Position) UnrealizedPnLPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}

	if p.Side == SideSell {
		return (p.EntryPrice - price) / p.EntryPrice
	}

	return (price - p.EntryPrice) / p.EntryPrice
}

// Trade is a closed position. Immutable once created; owned by the ledger.
type Trade struct {
	ID         string      `csv:"id" yaml:"id"`
	Symbol     string      `csv:"symbol" yaml:"symbol"`
	Side       Side        `csv:"side" yaml:"side"`
	EntryPrice float64     `csv:"entry_price" yaml:"entry_price"`
	ExitPrice  float64     `csv:"exit_price" yaml:"exit_price"`
	Size       float64     `csv:"size" yaml:"size"`
	EntryTime  time.Time   `csv:"entry_time" yaml:"entry_time"`
	ExitTime   time.Time   `csv:"exit_time" yaml:"exit_time"`
	PnL        float64     `csv:"pnl" yaml:"pnl"`
	Reason     CloseReason `csv:"reason" yaml:"reason"`
}

// NewTrade converts a position into a trade record at the given exit price.
// The size parameter supports partial reductions; pass position.Size for a
// full close.
func NewTrade(p Position, size, exitPrice float64, exitTime time.Time, reason CloseReason) Trade {
	closed := p
	closed.Size = size

	return Trade{
		ID:         p.ID,
		Symbol:     p.Symbol,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		Size:       size,
		EntryTime:  p.EntryTime,
		ExitTime:   exitTime,
		PnL:        closed.UnrealizedPnL(exitPrice),
		Reason:     reason,
	}
}
