package indicator

import "github.com/newthinker/prism/internal/core"

// Returns converts a price series into simple returns:
// (price[t] - price[t-1]) / price[t-1].
// The first entry is missing. A missing or zero prior price yields a missing
// return rather than an infinity.
func Returns(prices *core.Series) *core.Series {
	out := core.NewSeries(prices.Times())

	for i := 1; i < prices.Len(); i++ {
		prev, okPrev := prices.At(i - 1)
		cur, okCur := prices.At(i)
		if !okPrev || !okCur || prev == 0 {
			continue
		}
		out.Set(i, (cur-prev)/prev)
	}

	return out
}
