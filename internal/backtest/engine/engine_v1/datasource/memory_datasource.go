package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/meridian-lab/meridian-trading/internal/types"
)

// MemoryDataSource serves candles from an in-memory slice. It backs tests and
// embedders that already hold their candles.
type MemoryDataSource struct {
	candles []types.Candle
}

// NewMemoryDataSource creates a data source over the given candles. The
// candles are copied and sorted by time so the feed is always oldest-first.
func NewMemoryDataSource(candles []types.Candle) *MemoryDataSource {
	sorted := make([]types.Candle, len(candles))
	copy(sorted, candles)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &MemoryDataSource{candles: sorted}
}

// Initialize implements DataSource. The memory source has nothing to load.
func (m *MemoryDataSource) Initialize(path string) error {
	return nil
}

// ReadAll implements DataSource.
func (m *MemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool) {
	return func(yield func(types.Candle, error) bool) {
		for _, candle := range m.candles {
			if !inRange(candle.Time, start, end) {
				continue
			}

			if !yield(candle, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (m *MemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, candle := range m.candles {
		if inRange(candle.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (m *MemoryDataSource) Close() error {
	return nil
}

func inRange(t time.Time, start, end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
