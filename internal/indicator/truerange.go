package indicator

import (
	"math"

	"github.com/newthinker/prism/internal/core"
)

// TrueRange computes the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar, or any bar whose prior close is missing, degrades to
// high-low. The three series must share an index.
func TrueRange(high, low, close *core.Series) *core.Series {
	out := core.NewSeries(high.Times())

	for i := 0; i < high.Len(); i++ {
		h, okH := high.At(i)
		l, okL := low.At(i)
		if !okH || !okL {
			continue
		}

		tr := h - l
		if i > 0 {
			if prevClose, ok := close.At(i - 1); ok {
				hc := math.Abs(h - prevClose)
				lc := math.Abs(l - prevClose)
				tr = math.Max(tr, math.Max(hc, lc))
			}
		}
		out.Set(i, tr)
	}

	return out
}

// ATR computes the rolling mean of the true range over the trailing window
// [i-window, i). Entries at index < window are missing, as is any position
// whose window contains a missing true range.
func ATR(high, low, close *core.Series, window int) *core.Series {
	return RollingMean(TrueRange(high, low, close), window)
}
