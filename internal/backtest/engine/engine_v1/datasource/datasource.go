// Package datasource provides ordered candle feeds for the replay engine.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// DataSource feeds time-ordered candles to the replay engine. Implementations
// must yield candles oldest-first.
type DataSource interface {
	// Initialize loads market data from the given path (csv or parquet).
	Initialize(path string) error
	// ReadAll yields every candle in time order, optionally bounded by start
	// and end (inclusive).
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool)
	// Count returns the number of candles in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the data source.
	Close() error
}
