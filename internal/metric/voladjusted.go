package metric

import (
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/indicator"
)

// VolatilityAdjusted is the gain/loss ratio over volatility-normalized
// returns: each simple return is divided by the average true range at its
// index before the rolling ratio is taken. Where the ATR is missing or zero
// the adjusted return is missing, so the first valid point sits a full
// window later than the raw ratio's.
type VolatilityAdjusted struct{}

// NewVolatilityAdjusted creates a volatility adjusted ratio metric
func NewVolatilityAdjusted() *VolatilityAdjusted {
	return &VolatilityAdjusted{}
}

func (m *VolatilityAdjusted) Name() string {
	return "volatility_adjusted_ratio"
}

func (m *VolatilityAdjusted) Description() string {
	return "rolling gain/loss ratio of ATR-normalized returns"
}

func (m *VolatilityAdjusted) Compute(bars []core.OHLCV, window int) (*core.Series, error) {
	if window < 1 {
		return nil, core.ErrConfigInvalid
	}

	closes := core.CloseSeries(bars)
	returns := indicator.Returns(closes)
	atr := indicator.ATR(core.HighSeries(bars), core.LowSeries(bars), closes, window)

	adjusted := core.NewSeries(returns.Times())
	for i := 0; i < returns.Len(); i++ {
		r, ok := returns.At(i)
		if !ok {
			continue
		}
		a, ok := atr.At(i)
		if !ok || a == 0 {
			continue
		}
		adjusted.Set(i, r/a)
	}

	return indicator.GainLossRatio(adjusted, window), nil
}
