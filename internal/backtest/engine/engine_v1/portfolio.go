package engine

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// PortfolioState is the only shared mutable resource of a replay (or of a
// live account). All open/close mutations and sizing reads go through one
// mutex, so concurrent evaluation cycles observe consistent snapshots.
type PortfolioState struct {
	mu sync.Mutex

	balance     float64
	peakBalance float64
	maxDrawdown float64

	maxPositions          int
	maxPositionsPerSymbol int

	// open positions keyed by symbol; bounded multiplicity per symbol.
	open map[string][]types.Position
}

// NewPortfolioState creates a portfolio with the given starting balance and
// position caps.
func NewPortfolioState(initialBalance float64, maxPositions, maxPositionsPerSymbol int) *PortfolioState {
	return &PortfolioState{
		balance:               initialBalance,
		peakBalance:           initialBalance,
		maxPositions:          maxPositions,
		maxPositionsPerSymbol: maxPositionsPerSymbol,
		open:                  make(map[string][]types.Position),
	}
}

// SizingSnapshot is a consistent read of the fields the sizer needs.
type SizingSnapshot struct {
	Balance       float64
	OpenPositions int
	SlotFree      bool
	SymbolOpen    int
}

// Snapshot returns a consistent view of balance and position counts for the
// given symbol.
func (p *PortfolioState) Snapshot(symbol string) SizingSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.openCountLocked()
	symbolOpen := len(p.open[symbol])

	return SizingSnapshot{
		Balance:       p.balance,
		OpenPositions: total,
		SlotFree:      total < p.maxPositions && symbolOpen < p.maxPositionsPerSymbol,
		SymbolOpen:    symbolOpen,
	}
}

// Balance returns the current balance.
func (p *PortfolioState) Balance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.balance
}

// OpenPositions returns a copy of the open positions for a symbol.
func (p *PortfolioState) OpenPositions(symbol string) []types.Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	positions := make([]types.Position, len(p.open[symbol]))
	copy(positions, p.open[symbol])

	return positions
}

// OpenPosition validates and registers a new position. The position caps are
// re-checked under the lock so two concurrent cycles cannot both take the
// last slot.
func (p *PortfolioState) OpenPosition(pos types.Position) error {
	if err := pos.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.openCountLocked() >= p.maxPositions {
		return errors.Newf(errors.ErrCodeInvalidPosition, "max positions %d reached", p.maxPositions)
	}

	if len(p.open[pos.Symbol]) >= p.maxPositionsPerSymbol {
		return errors.Newf(errors.ErrCodeInvalidPosition, "max positions for %s reached", pos.Symbol)
	}

	p.open[pos.Symbol] = append(p.open[pos.Symbol], pos)

	return nil
}

// ClosePosition removes an open position and realizes the trade's PnL into
// the balance.
func (p *PortfolioState) ClosePosition(trade types.Trade) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.removeLocked(trade.Symbol, trade.ID) {
		return errors.Newf(errors.ErrCodeDataNotFound, "no open position %s for %s", trade.ID, trade.Symbol)
	}

	p.realizeLocked(trade.PnL)

	return nil
}

// ReducePosition shrinks an open position by the trade's size and realizes
// the partial PnL. The remaining position is marked profit-locked.
func (p *PortfolioState) ReducePosition(trade types.Trade) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	positions := p.open[trade.Symbol]
	for i := range positions {
		if positions[i].ID != trade.ID {
			continue
		}

		if trade.Size >= positions[i].Size {
			return errors.Newf(errors.ErrCodeInvalidPosition,
				"reduction size %f must be below position size %f", trade.Size, positions[i].Size)
		}

		remaining, _ := decimal.NewFromFloat(positions[i].Size).Sub(decimal.NewFromFloat(trade.Size)).Float64()
		positions[i].Size = remaining
		positions[i].ProfitLocked = true
		p.realizeLocked(trade.PnL)

		return nil
	}

	return errors.Newf(errors.ErrCodeDataNotFound, "no open position %s for %s", trade.ID, trade.Symbol)
}

// MarkBar updates the peak balance and drawdown tracking for one bar and
// returns the current balance point. Peak balance is monotonically
// non-decreasing across a replay.
func (p *PortfolioState) MarkBar() (balance, drawdown float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balance > p.peakBalance {
		p.peakBalance = p.balance
	}

	if p.peakBalance > 0 {
		drawdown = (p.peakBalance - p.balance) / p.peakBalance
	}

	if drawdown > p.maxDrawdown {
		p.maxDrawdown = drawdown
	}

	return p.balance, drawdown
}

// MaxDrawdown returns the largest drawdown fraction observed so far.
func (p *PortfolioState) MaxDrawdown() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.maxDrawdown
}

// PeakBalance returns the highest balance observed so far.
func (p *PortfolioState) PeakBalance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.peakBalance
}

func (p *PortfolioState) openCountLocked() int {
	total := 0
	for _, positions := range p.open {
		total += len(positions)
	}

	return total
}

func (p *PortfolioState) removeLocked(symbol, id string) bool {
	positions := p.open[symbol]
	for i := range positions {
		if positions[i].ID == id {
			p.open[symbol] = append(positions[:i], positions[i+1:]...)

			return true
		}
	}

	return false
}

// realizeLocked applies a realized PnL to the balance with decimal
// arithmetic so repeated small trades stay deterministic.
func (p *PortfolioState) realizeLocked(pnl float64) {
	balance, _ := decimal.NewFromFloat(p.balance).Add(decimal.NewFromFloat(pnl)).Float64()
	p.balance = balance
}
