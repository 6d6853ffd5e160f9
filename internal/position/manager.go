// Package position implements the lifecycle manager: per-bar evaluation of an
// open position against its close rules in a fixed priority order.
package position

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/indicator"
	"github.com/meridian-lab/meridian-trading/internal/strategy"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Config parameterizes the close rules.
type Config struct {
	// SlippageBuffer widens the stop-loss trigger: a buy stop fires when price
	// drops below stop*(1-SlippageBuffer).
	SlippageBuffer float64 `yaml:"slippage_buffer" json:"slippage_buffer" validate:"gte=0,lt=1"`
	// LockInThreshold is the unrealized profit fraction that arms the trailing
	// stop.
	LockInThreshold float64 `yaml:"lock_in_threshold" json:"lock_in_threshold" validate:"gt=0"`
	// TrailATRMultiplier sets the trailing distance in ATR units.
	TrailATRMultiplier float64 `yaml:"trail_atr_multiplier" json:"trail_atr_multiplier" validate:"gt=0"`
	// MinReversalConfirmations is the trend confirmation count required to
	// close on reversal.
	MinReversalConfirmations int `yaml:"min_reversal_confirmations" json:"min_reversal_confirmations" validate:"gte=1"`
	// MaxLossPct forces a close when the unrealized loss fraction drops below
	// this (negative) floor.
	MaxLossPct float64 `yaml:"max_loss_pct" json:"max_loss_pct" validate:"lt=0"`

	ProfitLock ProfitLockConfig `yaml:"profit_lock" json:"profit_lock"`
}

// ProfitLockConfig is the opt-in partial reduction extension. When enabled, a
// position whose profit reaches Threshold is reduced once by LockFraction of
// its size; the remainder keeps running under the normal close rules.
type ProfitLockConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Threshold    float64 `yaml:"threshold" json:"threshold" validate:"gte=0"`
	LockFraction float64 `yaml:"lock_fraction" json:"lock_fraction" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the baseline close rule parameters.
func DefaultConfig() Config {
	return Config{
		SlippageBuffer:           0.002,
		LockInThreshold:          0.02,
		TrailATRMultiplier:       2.0,
		MinReversalConfirmations: 3,
		MaxLossPct:               -0.02,
		ProfitLock: ProfitLockConfig{
			Enabled:      false,
			Threshold:    0.03,
			LockFraction: 0.5,
		},
	}
}

// UnmarshalYAML overlays the document onto DefaultConfig so a partial yaml
// block stays runnable.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig Config

	raw := rawConfig(DefaultConfig())
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*c = Config(raw)

	return nil
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid position manager config", err)
	}

	return nil
}

// Action classifies the manager's verdict for one bar.
type Action string

const (
	// ActionClose fully closes the position.
	ActionClose Action = "close"
	// ActionReduce partially closes the position (profit lock).
	ActionReduce Action = "reduce"
)

// CloseDecision directs the caller to close or reduce a position at Price.
// Size is the quantity to close; for ActionClose it equals the position size.
type CloseDecision struct {
	Action Action
	Reason types.CloseReason
	Price  float64
	Size   float64
	Detail string
}

// Manager evaluates open positions against the close rules. It is stateless
// between calls; the caller owns the position records.
type Manager struct {
	config Config
}

// NewManager creates a Manager with a validated config.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Manager{config: config}, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Evaluate checks an open position against the close rules at the given bar.
// Rules run in fixed priority, first match wins:
//
//  1. stop-loss breach beyond the slippage buffer
//  2. take-profit breach
//  3. trailing stop, once armed by the lock-in threshold
//  4. trend reversal with enough confirmations and price beyond the long EMA
//  5. hard loss cap
//
// The profit lock reduction is checked after the close rules so a position
// that must close never emits a partial reduction instead. Returns None when
// the position stays untouched.
func (m *Manager) Evaluate(pos types.Position, bar types.Candle, snap indicator.Snapshot) optional.Option[CloseDecision] {
	if pos.State != types.PositionStateOpen || pos.Size <= 0 {
		return optional.None[CloseDecision]()
	}

	price := bar.Close
	pnlPct := pos.UnrealizedPnLPct(price)

	if m.stopLossBreached(pos, price) {
		return optional.Some(m.fullClose(pos, price, types.CloseReasonStopLoss,
			fmt.Sprintf("price %.4f crossed stop %.4f", price, pos.StopLoss)))
	}

	if m.takeProfitBreached(pos, price) {
		return optional.Some(m.fullClose(pos, price, types.CloseReasonTakeProfit,
			fmt.Sprintf("price %.4f crossed take %.4f", price, pos.TakeProfit)))
	}

	if pnlPct > m.config.LockInThreshold && m.trailingStopHit(pos, bar, snap.ATR) {
		return optional.Some(m.fullClose(pos, price, types.CloseReasonTrailingStop,
			fmt.Sprintf("trail recrossed at %.4f", price)))
	}

	if m.trendReversed(pos, price, snap) {
		return optional.Some(m.fullClose(pos, price, types.CloseReasonTrendReversal,
			"trend flipped against position"))
	}

	if pnlPct < m.config.MaxLossPct {
		return optional.Some(m.fullClose(pos, price, types.CloseReasonMaxLoss,
			fmt.Sprintf("unrealized loss %.2f%% below floor", pnlPct*100)))
	}

	if m.profitLockTriggered(pos, pnlPct) {
		return optional.Some(CloseDecision{
			Action: ActionReduce,
			Reason: types.CloseReasonProfitLock,
			Price:  price,
			Size:   pos.Size * m.config.ProfitLock.LockFraction,
			Detail: fmt.Sprintf("locking %.0f%% at %.2f%% profit", m.config.ProfitLock.LockFraction*100, pnlPct*100),
		})
	}

	return optional.None[CloseDecision]()
}

func (m *Manager) fullClose(pos types.Position, price float64, reason types.CloseReason, detail string) CloseDecision {
	return CloseDecision{
		Action: ActionClose,
		Reason: reason,
		Price:  price,
		Size:   pos.Size,
		Detail: detail,
	}
}

func (m *Manager) stopLossBreached(pos types.Position, price float64) bool {
	if pos.StopLoss <= 0 {
		return false
	}

	if pos.Side == types.SideSell {
		return price > pos.StopLoss*(1+m.config.SlippageBuffer)
	}

	return price < pos.StopLoss*(1-m.config.SlippageBuffer)
}

func (m *Manager) takeProfitBreached(pos types.Position, price float64) bool {
	if pos.TakeProfit <= 0 {
		return false
	}

	if pos.Side == types.SideSell {
		return price < pos.TakeProfit
	}

	return price > pos.TakeProfit
}

// trailingStopHit anchors the trail at the bar's favorable extreme and closes
// when the bar's close recrosses it. The trail must already sit beyond the
// entry, so the trailing rule can never turn a winner back into a full-risk
// trade.
func (m *Manager) trailingStopHit(pos types.Position, bar types.Candle, atr float64) bool {
	if atr <= 0 {
		return false
	}

	trailDistance := m.config.TrailATRMultiplier * atr

	if pos.Side == types.SideSell {
		trail := bar.Low + trailDistance

		return trail < pos.EntryPrice && bar.Close > trail
	}

	trail := bar.High - trailDistance

	return trail > pos.EntryPrice && bar.Close < trail
}

func (m *Manager) trendReversed(pos types.Position, price float64, snap indicator.Snapshot) bool {
	trend := strategy.TrendOf(snap)

	if trend.Confirmations < m.config.MinReversalConfirmations {
		return false
	}

	if pos.Side == types.SideSell {
		return trend.Direction == strategy.TrendBullish && price > snap.EMALong
	}

	return trend.Direction == strategy.TrendBearish && price < snap.EMALong
}

func (m *Manager) profitLockTriggered(pos types.Position, pnlPct float64) bool {
	pl := m.config.ProfitLock

	return pl.Enabled && !pos.ProfitLocked && pl.LockFraction > 0 && pnlPct >= pl.Threshold
}
