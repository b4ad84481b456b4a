package indicator

import "github.com/newthinker/prism/internal/core"

// GainLossRatio computes the rolling performance ratio over the trailing
// window [i-window, i): the sum of the window's returns divided by the sum of
// the absolute values of its negative returns.
//
// Entries at index < window are missing. A window containing any missing
// return yields a missing ratio. A window with no negative returns yields a
// missing ratio as well: the engine-wide division policy is "degenerate
// denominators degrade to missing", never signed infinity.
func GainLossRatio(returns *core.Series, window int) *core.Series {
	out := core.NewSeries(returns.Times())
	if window < 1 || returns.Len() <= window {
		return out
	}

	var acc ratioAccum
	for i := 0; i < window; i++ {
		acc.take(returns, i)
	}

	for i := window; i < returns.Len(); i++ {
		if v, ok := acc.ratio(); ok {
			out.Set(i, v)
		}
		acc.drop(returns, i-window)
		acc.take(returns, i)
	}

	return out
}

// ratioAccum holds the incremental window state for GainLossRatio. The
// negative count, not the loss sum, decides denominator degeneracy: the loss
// sum can carry rounding residue after the last negative slides out.
type ratioAccum struct {
	sum     float64
	loss    float64
	negs    int
	missing int
}

func (a *ratioAccum) take(s *core.Series, i int) {
	v, ok := s.At(i)
	if !ok {
		a.missing++
		return
	}
	a.sum += v
	if v < 0 {
		a.loss -= v
		a.negs++
	}
}

func (a *ratioAccum) drop(s *core.Series, i int) {
	v, ok := s.At(i)
	if !ok {
		a.missing--
		return
	}
	a.sum -= v
	if v < 0 {
		a.loss += v
		a.negs--
		if a.negs == 0 {
			a.loss = 0
		}
	}
}

func (a *ratioAccum) ratio() (float64, bool) {
	if a.missing > 0 || a.negs == 0 || a.loss == 0 {
		return 0, false
	}
	return a.sum / a.loss, true
}
