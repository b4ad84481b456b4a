package core

import "time"

// Market represents a trading market
type Market string

const (
	MarketUS     Market = "US"
	MarketHK     Market = "HK"
	MarketEU     Market = "EU"
	MarketCrypto Market = "CRYPTO"
)

// AssetType represents the type of financial asset
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetIndex  AssetType = "index"
	AssetETF    AssetType = "etf"
	AssetCrypto AssetType = "crypto"
)

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// CloseSeries extracts the close prices of the given bars as a Series.
func CloseSeries(bars []OHLCV) *Series {
	return barSeries(bars, func(b OHLCV) float64 { return b.Close })
}

// HighSeries extracts the high prices of the given bars as a Series.
func HighSeries(bars []OHLCV) *Series {
	return barSeries(bars, func(b OHLCV) float64 { return b.High })
}

// LowSeries extracts the low prices of the given bars as a Series.
func LowSeries(bars []OHLCV) *Series {
	return barSeries(bars, func(b OHLCV) float64 { return b.Low })
}

func barSeries(bars []OHLCV, field func(OHLCV) float64) *Series {
	times := make([]time.Time, len(bars))
	for i, b := range bars {
		times[i] = b.Time
	}
	s := NewSeries(times)
	for i, b := range bars {
		s.Set(i, field(b))
	}
	return s
}

// MeasureMeans summarizes one sensitivity bundle: the mean of each measure
// over its valid entries, plus how many window positions passed the
// regime-validity gate.
type MeasureMeans struct {
	Upside       float64 `json:"upside_sensitivity"`
	Downside     float64 `json:"downside_sensitivity"`
	Composite    float64 `json:"composite_sensitivity"`
	Independence float64 `json:"market_independence"`
	ValidPoints  int     `json:"valid_points"`
}

// Report is the per-symbol analysis summary sent to notifiers and printed
// by the CLI.
type Report struct {
	Symbol      string                  `json:"symbol"`
	Market      string                  `json:"market"`
	Window      int                     `json:"window"`
	Start       time.Time               `json:"start"`
	End         time.Time               `json:"end"`
	Metrics     map[string]MeasureMeans `json:"metrics"`
	GeneratedAt time.Time               `json:"generated_at"`
}
