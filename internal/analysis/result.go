package analysis

import (
	"time"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/regime"
)

// MetricResult holds one metric's raw series and its regime sensitivities.
type MetricResult struct {
	Series      *core.Series   `json:"series"`
	Sensitivity *regime.Bundle `json:"sensitivity"`
}

// Prices holds the aligned input price series for an analysis.
type Prices struct {
	Asset  *core.Series `json:"asset"`
	Market *core.Series `json:"market"`
}

// Result is the full output of analyzing one symbol against the market
// benchmark.
type Result struct {
	Symbol       string                   `json:"symbol"`
	MarketSymbol string                   `json:"market_symbol"`
	Market       core.Market              `json:"market"`
	Window       int                      `json:"window"`
	Interval     string                   `json:"interval"`
	Start        time.Time                `json:"start"`
	End          time.Time                `json:"end"`
	Prices       Prices                   `json:"prices"`
	Metrics      map[string]*MetricResult `json:"metrics"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

// Report condenses the result into per-metric summary means.
func (r *Result) Report() *core.Report {
	report := &core.Report{
		Symbol:      r.Symbol,
		Market:      string(r.Market),
		Window:      r.Window,
		Start:       r.Start,
		End:         r.End,
		Metrics:     make(map[string]core.MeasureMeans, len(r.Metrics)),
		GeneratedAt: r.GeneratedAt,
	}
	for name, mr := range r.Metrics {
		if mr.Sensitivity != nil {
			report.Metrics[name] = mr.Sensitivity.Means()
		}
	}
	return report
}
