package collector

import (
	"context"
	"time"

	"github.com/newthinker/prism/internal/core"
)

// Config holds collector configuration
type Config struct {
	Enabled bool
	Markets []string
	BaseURL string
	APIKey  string
	Extra   map[string]any
}

// Collector defines the interface for price history collectors
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Lifecycle
	Init(cfg Config) error

	// Data fetching
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
