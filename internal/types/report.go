package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BalancePoint is one entry of the per-bar balance history of a replay.
type BalancePoint struct {
	Time     time.Time `yaml:"time"`
	Balance  float64   `yaml:"balance"`
	Drawdown float64   `yaml:"drawdown"`
}

// Report aggregates the outcome of a backtest replay over closed trades.
//
// ProfitFactor is gross profit divided by gross loss. When gross loss is zero
// the value is +Inf if gross profit is positive and 0 otherwise; yaml renders
// +Inf as .inf.
type Report struct {
	// ID is the unique identifier for this replay run.
	ID string `yaml:"id"`
	// Timestamp is when this replay was executed.
	Timestamp      time.Time `yaml:"timestamp"`
	Symbol         string    `yaml:"symbol"`
	InitialBalance float64   `yaml:"initial_balance"`
	FinalBalance   float64   `yaml:"final_balance"`
	TotalReturnPct float64   `yaml:"total_return_pct"`
	TotalTrades    int       `yaml:"total_trades"`
	WinningTrades  int       `yaml:"winning_trades"`
	LosingTrades   int       `yaml:"losing_trades"`
	WinRatePct     float64   `yaml:"win_rate_pct"`
	GrossProfit    float64   `yaml:"gross_profit"`
	GrossLoss      float64   `yaml:"gross_loss"`
	ProfitFactor   float64   `yaml:"profit_factor"`
	MaxDrawdownPct float64   `yaml:"max_drawdown_pct"`
	// TradeLedger holds all closed trades in exit-time order.
	TradeLedger []Trade `yaml:"trade_ledger"`
	// BalanceHistory holds one snapshot per processed bar.
	BalanceHistory []BalancePoint `yaml:"balance_history"`
}

// WriteReport marshals the report to YAML and writes it to path.
func WriteReport(path string, report Report) error {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}

	return nil
}
