package engine

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Ledger stores closed trades in an in-memory DuckDB table keyed by a unique
// trade id, and computes aggregate statistics in SQL.
type Ledger struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// LedgerStats are the SQL aggregates over all recorded trades.
type LedgerStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	GrossProfit   float64
	GrossLoss     float64
	MaxPnL        float64
	MinPnL        float64
}

// NewLedger creates the in-memory trade ledger.
func NewLedger(log *logger.Logger) (*Ledger, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open ledger database", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id VARCHAR PRIMARY KEY,
			symbol VARCHAR,
			side VARCHAR,
			entry_price DOUBLE,
			exit_price DOUBLE,
			size DOUBLE,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			pnl DOUBLE,
			reason VARCHAR
		);
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trades table", err)
	}

	return &Ledger{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: log,
	}, nil
}

// RecordTrade inserts a closed trade. A missing id gets a fresh uuid; the
// returned trade carries the id actually stored.
func (l *Ledger) RecordTrade(trade types.Trade) (types.Trade, error) {
	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}

	query := l.sq.Insert("trades").
		Columns("id", "symbol", "side", "entry_price", "exit_price", "size", "entry_time", "exit_time", "pnl", "reason").
		Values(trade.ID, trade.Symbol, string(trade.Side), trade.EntryPrice, trade.ExitPrice, trade.Size,
			trade.EntryTime, trade.ExitTime, trade.PnL, string(trade.Reason))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trade insert", err)
	}

	if _, err := l.db.Exec(sqlStr, args...); err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to record trade", err)
	}

	l.logger.Debug("recorded trade",
		zap.String("id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.Float64("pnl", trade.PnL),
		zap.String("reason", string(trade.Reason)))

	return trade, nil
}

// Trades returns all recorded trades in exit-time order.
func (l *Ledger) Trades() ([]types.Trade, error) {
	query := l.sq.Select("id", "symbol", "side", "entry_price", "exit_price", "size", "entry_time", "exit_time", "pnl", "reason").
		From("trades").
		OrderBy("exit_time ASC", "id ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trades query", err)
	}

	rows, err := l.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade        types.Trade
			side, reason string
		)

		err := rows.Scan(&trade.ID, &trade.Symbol, &side, &trade.EntryPrice, &trade.ExitPrice, &trade.Size,
			&trade.EntryTime, &trade.ExitTime, &trade.PnL, &reason)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade row", err)
		}

		trade.Side = types.Side(side)
		trade.Reason = types.CloseReason(reason)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "trade iteration failed", err)
	}

	return trades, nil
}

// Stats computes the aggregate statistics over all recorded trades.
func (l *Ledger) Stats() (LedgerStats, error) {
	var stats LedgerStats

	row := l.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE pnl > 0),
			COUNT(*) FILTER (WHERE pnl < 0),
			COALESCE(SUM(pnl) FILTER (WHERE pnl > 0), 0),
			COALESCE(ABS(SUM(pnl) FILTER (WHERE pnl < 0)), 0),
			COALESCE(MAX(pnl), 0),
			COALESCE(MIN(pnl), 0)
		FROM trades;
	`)

	err := row.Scan(&stats.TotalTrades, &stats.WinningTrades, &stats.LosingTrades,
		&stats.GrossProfit, &stats.GrossLoss, &stats.MaxPnL, &stats.MinPnL)
	if err != nil {
		return LedgerStats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to compute ledger stats", err)
	}

	return stats, nil
}

// Close releases the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
