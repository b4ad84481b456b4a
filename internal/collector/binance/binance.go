package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/prism/internal/collector"
	"github.com/newthinker/prism/internal/core"
)

const (
	baseURL = "https://api.binance.com"
)

// Binance implements the collector interface for Binance spot markets
type Binance struct {
	client  *http.Client
	baseURL string
	config  collector.Config
}

// New creates a new Binance collector
func New() *Binance {
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates a Binance collector with custom base URL (for testing)
func NewWithBaseURL(url string) *Binance {
	b := New()
	b.baseURL = url
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

func (b *Binance) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketCrypto}
}

func (b *Binance) Init(cfg collector.Config) error {
	b.config = cfg
	if cfg.BaseURL != "" {
		b.baseURL = cfg.BaseURL
	}
	return nil
}

// toBinanceSymbol converts internal symbol format to Binance pair format.
// "SOL-USD" and "SOL/USDT" both become "SOLUSDT"; "SOLUSDT" passes through.
func toBinanceSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.ReplaceAll(s, "/", "-")
	if base, quote, ok := strings.Cut(s, "-"); ok {
		if quote == "USD" {
			quote = "USDT"
		}
		return base + quote
	}
	return s
}

// FetchHistory fetches historical klines from Binance
func (b *Binance) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	pair := toBinanceSymbol(symbol)
	binanceInterval := b.toInterval(interval)
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=1000",
		b.baseURL, pair, binanceInterval, start.UnixMilli(), end.UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol %s", symbol))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var klines [][]any
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	data := make([]core.OHLCV, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}

		openTime, _ := k[0].(float64)
		openStr, _ := k[1].(string)
		highStr, _ := k[2].(string)
		lowStr, _ := k[3].(string)
		closeStr, _ := k[4].(string)
		volumeStr, _ := k[5].(string)

		open, _ := strconv.ParseFloat(openStr, 64)
		high, _ := strconv.ParseFloat(highStr, 64)
		low, _ := strconv.ParseFloat(lowStr, 64)
		close, _ := strconv.ParseFloat(closeStr, 64)
		volume, _ := strconv.ParseFloat(volumeStr, 64)

		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    close,
			Volume:   int64(volume),
			Time:     time.UnixMilli(int64(openTime)).UTC(),
		})
	}

	if len(data) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("symbol %s", symbol))
	}

	return data, nil
}

func (b *Binance) toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m":
		return interval
	case "1h", "2h", "4h":
		return interval
	case "1d", "1w":
		return interval
	default:
		return "1d"
	}
}
