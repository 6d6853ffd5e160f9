// Package engine defines the replay engine contract.
package engine

import (
	"context"

	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/backtest/engine/engine_v1/datasource"
	"github.com/meridian-lab/meridian-trading/internal/types"
)

// OnProcessDataCallback is called for each processed bar. Returning an error
// aborts the replay.
type OnProcessDataCallback func(current int, total int) error

// Engine replays a candle feed through the signal, sizing, and lifecycle
// components and aggregates a performance report.
type Engine interface {
	// Initialize configures the engine from a yaml config string.
	Initialize(config string) error
	// SetDataSource sets the candle feed to replay.
	SetDataSource(source datasource.DataSource) error
	// Run executes one deterministic replay pass. The context can cancel the
	// replay between bars.
	Run(ctx context.Context, onProcessData optional.Option[OnProcessDataCallback]) (types.Report, error)
}
