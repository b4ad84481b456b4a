package metric

import (
	"github.com/newthinker/prism/internal/core"
)

// Metric defines the interface for rolling performance metrics. A metric
// turns a bar history into a derived time series aligned to the bars' index;
// positions a metric cannot compute are missing, never an error.
type Metric interface {
	Name() string
	Description() string
	Compute(bars []core.OHLCV, window int) (*core.Series, error)
}
