package metric

import (
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/indicator"
)

// PerformanceRatio is the rolling gain/loss ratio over raw close-to-close
// returns: the window's summed return divided by the summed magnitude of its
// negative returns.
type PerformanceRatio struct{}

// NewPerformanceRatio creates a performance ratio metric
func NewPerformanceRatio() *PerformanceRatio {
	return &PerformanceRatio{}
}

func (m *PerformanceRatio) Name() string {
	return "performance_ratio"
}

func (m *PerformanceRatio) Description() string {
	return "rolling gain/loss ratio of simple returns"
}

func (m *PerformanceRatio) Compute(bars []core.OHLCV, window int) (*core.Series, error) {
	if window < 1 {
		return nil, core.ErrConfigInvalid
	}
	returns := indicator.Returns(core.CloseSeries(bars))
	return indicator.GainLossRatio(returns, window), nil
}
