package regime

import (
	"fmt"
	"math"

	"github.com/newthinker/prism/internal/core"
)

// Bundle holds the four sensitivity series produced by Analyze, all aligned
// to the input metric series' index.
type Bundle struct {
	Upside       *core.Series `json:"upside_sensitivity"`
	Downside     *core.Series `json:"downside_sensitivity"`
	Composite    *core.Series `json:"composite_sensitivity"`
	Independence *core.Series `json:"market_independence"`
}

// Series returns the bundle's series keyed by measure name.
func (b *Bundle) Series() map[string]*core.Series {
	return map[string]*core.Series{
		"upside_sensitivity":    b.Upside,
		"downside_sensitivity":  b.Downside,
		"composite_sensitivity": b.Composite,
		"market_independence":   b.Independence,
	}
}

// Means summarizes the bundle: the mean of each measure over its valid
// entries. ValidPoints counts the window positions that passed the
// regime-validity gate.
func (b *Bundle) Means() core.MeasureMeans {
	m := core.MeasureMeans{ValidPoints: b.Upside.ValidCount()}
	if v, ok := b.Upside.Mean(); ok {
		m.Upside = v
	}
	if v, ok := b.Downside.Mean(); ok {
		m.Downside = v
	}
	if v, ok := b.Composite.Mean(); ok {
		m.Composite = v
	}
	if v, ok := b.Independence.Mean(); ok {
		m.Independence = v
	}
	return m
}

// Analyze runs the rolling dual-regime regression of metric against market
// returns. For each index i >= window it takes the trailing slice
// [i-window, i), partitions the paired observations by the sign of the
// market return, and fits a least-squares slope per regime.
//
// A window position is valid only when both regimes hold strictly more than
// window/4 paired observations (integer division) and both slopes are
// well-defined; otherwise all four outputs stay missing at that index.
// Pairs with a missing metric or market value are excluded before the gate
// is applied, so thin data fails the gate instead of skewing a fit.
//
// Emitted per valid index:
//
//	upside_sensitivity    = up-regime slope
//	downside_sensitivity  = down-regime slope
//	composite_sensitivity = upside - downside
//	market_independence   = 1 - |upside * downside|
func Analyze(metric, market *core.Series, window int) (*Bundle, error) {
	if window < 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("window must be >= 1, got %d", window))
	}
	if metric.Len() != market.Len() {
		return nil, core.WrapError(core.ErrSeriesMismatch,
			fmt.Errorf("metric has %d entries, market has %d", metric.Len(), market.Len()))
	}

	times := metric.Times()
	b := &Bundle{
		Upside:       core.NewSeries(times),
		Downside:     core.NewSeries(times),
		Composite:    core.NewSeries(times),
		Independence: core.NewSeries(times),
	}

	gate := window / 4
	up := make([]Sample, 0, window)
	down := make([]Sample, 0, window)

	for i := window; i < metric.Len(); i++ {
		up = up[:0]
		down = down[:0]

		for j := i - window; j < i; j++ {
			x, okX := market.At(j)
			y, okY := metric.At(j)
			if !okX || !okY {
				continue
			}
			switch {
			case x > 0:
				up = append(up, Sample{Market: x, Metric: y})
			case x < 0:
				down = append(down, Sample{Market: x, Metric: y})
			}
		}

		if len(up) <= gate || len(down) <= gate {
			continue
		}

		upSlope, okUp := Slope(up)
		downSlope, okDown := Slope(down)
		if !okUp || !okDown {
			continue
		}

		b.Upside.Set(i, upSlope)
		b.Downside.Set(i, downSlope)
		b.Composite.Set(i, upSlope-downSlope)
		b.Independence.Set(i, 1-math.Abs(upSlope*downSlope))
	}

	return b, nil
}
