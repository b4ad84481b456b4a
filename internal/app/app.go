package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/prism/internal/analysis"
	"github.com/newthinker/prism/internal/collector"
	"github.com/newthinker/prism/internal/collector/binance"
	"github.com/newthinker/prism/internal/collector/yahoo"
	"github.com/newthinker/prism/internal/config"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/metric"
	"github.com/newthinker/prism/internal/metrics"
	"github.com/newthinker/prism/internal/notifier"
	"github.com/newthinker/prism/internal/notifier/email"
	"github.com/newthinker/prism/internal/notifier/telegram"
	"github.com/newthinker/prism/internal/notifier/webhook"
	"github.com/newthinker/prism/internal/smoothing"
	"github.com/newthinker/prism/internal/storage/archive"
	"github.com/newthinker/prism/internal/storage/report"
)

// App is the main application orchestrator. It wires collectors, metrics,
// smoothing, storage and notifiers from configuration and can run the
// watchlist on a schedule.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	collectors *collector.Registry
	engine     *metric.Engine
	notifiers  *notifier.Registry
	registry   *metrics.Registry
	runner     *analysis.Runner
	reports    report.Store

	watchlist    []string
	watchlistSet map[string]struct{}
	interval     time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
}

// New creates an App from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:          cfg,
		logger:       logger,
		collectors:   collector.NewRegistry(),
		engine:       metric.NewEngine(logger),
		notifiers:    notifier.NewRegistry(),
		registry:     metrics.NewRegistry(),
		watchlistSet: make(map[string]struct{}),
		interval:     24 * time.Hour,
	}

	a.engine.Register(metric.NewPerformanceRatio())
	a.engine.Register(metric.NewVolatilityAdjusted())

	if err := a.setupCollectors(); err != nil {
		return nil, err
	}
	if err := a.setupNotifiers(); err != nil {
		return nil, err
	}

	maxReports := cfg.Storage.History.MaxReports
	if maxReports <= 0 {
		maxReports = 1000
	}
	a.reports = report.NewMemoryStore(maxReports)

	a.runner = analysis.NewRunner(a.collectors, a.engine, logger)
	a.runner.SetMetrics(a.registry)

	if cfg.Smoothing.Enabled {
		filter, err := smoothing.New(cfg.Smoothing.Window, cfg.Smoothing.Degree)
		if err != nil {
			return nil, fmt.Errorf("configuring smoothing: %w", err)
		}
		a.runner.SetSmoother(filter)
	}

	if cfg.Storage.Artifacts.Enabled {
		store, err := buildArtifactStore(cfg.Storage.Artifacts)
		if err != nil {
			return nil, fmt.Errorf("configuring artifact storage: %w", err)
		}
		a.runner.SetStore(store)
	}

	a.SetWatchlist(cfg.Analysis.Watchlist)

	return a, nil
}

func (a *App) setupCollectors() error {
	for name, cc := range a.cfg.Collectors {
		if !cc.Enabled {
			continue
		}

		var c collector.Collector
		switch name {
		case "yahoo":
			c = yahoo.New()
		case "binance":
			c = binance.New()
		default:
			return fmt.Errorf("unknown collector %q", name)
		}

		if err := c.Init(collector.Config{
			Enabled: cc.Enabled,
			Markets: cc.Markets,
			BaseURL: cc.BaseURL,
			APIKey:  cc.APIKey,
		}); err != nil {
			return fmt.Errorf("initializing collector %s: %w", name, err)
		}
		a.collectors.Register(c)
	}
	return nil
}

func (a *App) setupNotifiers() error {
	for name, nc := range a.cfg.Notifiers {
		if !nc.Enabled {
			continue
		}

		var n notifier.Notifier
		switch name {
		case "telegram":
			n = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n = webhook.New(nc.URL, nc.Headers)
		case "email":
			n = email.New(nc.Host, nc.Port, nc.Username, nc.Password, nc.From, nc.To)
		default:
			return fmt.Errorf("unknown notifier %q", name)
		}

		if err := a.notifiers.Register(n); err != nil {
			return fmt.Errorf("registering notifier %s: %w", name, err)
		}
	}
	return nil
}

func buildArtifactStore(cfg config.ArtifactStorageConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown artifact storage type %q", cfg.Type)
	}
}

// Runner returns the configured analysis runner.
func (a *App) Runner() *analysis.Runner {
	return a.runner
}

// Engine returns the metric engine.
func (a *App) Engine() *metric.Engine {
	return a.engine
}

// Reports returns the report history store.
func (a *App) Reports() report.Store {
	return a.reports
}

// Metrics returns the Prometheus registry.
func (a *App) Metrics() *metrics.Registry {
	return a.registry
}

// RegisterCollector adds a collector to the app.
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// RegisterNotifier adds a notifier to the app.
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

// SetWatchlist replaces the monitored symbols.
func (a *App) SetWatchlist(symbols []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchlist = make([]string, 0, len(symbols))
	a.watchlistSet = make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if _, dup := a.watchlistSet[s]; dup {
			continue
		}
		a.watchlistSet[s] = struct{}{}
		a.watchlist = append(a.watchlist, s)
	}
	a.registry.SetWatchlistSize(len(a.watchlist))
}

// GetWatchlist returns the current watchlist symbols.
func (a *App) GetWatchlist() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	result := make([]string, len(a.watchlist))
	copy(result, a.watchlist)
	return result
}

// AddToWatchlist adds a symbol to the watchlist.
func (a *App) AddToWatchlist(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.watchlistSet[symbol]; exists {
		return
	}
	a.watchlistSet[symbol] = struct{}{}
	a.watchlist = append(a.watchlist, symbol)
	a.registry.SetWatchlistSize(len(a.watchlist))
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (a *App) RemoveFromWatchlist(symbol string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.watchlistSet[symbol]; !exists {
		return false
	}
	delete(a.watchlistSet, symbol)
	for i, s := range a.watchlist {
		if s == symbol {
			a.watchlist = append(a.watchlist[:i], a.watchlist[i+1:]...)
			break
		}
	}
	a.registry.SetWatchlistSize(len(a.watchlist))
	return true
}

// SetInterval sets the watchlist analysis interval.
func (a *App) SetInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interval = d
}

// Options returns the analysis defaults from configuration.
func (a *App) Options() analysis.Options {
	return analysis.Options{
		MarketSymbol: a.cfg.Analysis.MarketSymbol,
		Market:       core.Market(a.cfg.Analysis.Market),
		Window:       a.cfg.Analysis.Window,
		Interval:     a.cfg.Analysis.Interval,
		Source:       a.cfg.Analysis.Source,
	}
}

// Start begins the periodic watchlist analysis loop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("PRISM starting",
		zap.Int("watchlist_count", len(a.GetWatchlist())),
		zap.Duration("interval", a.interval),
	)

	// Initial run
	a.runCycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("PRISM shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

// Stop stops the monitoring loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single analysis cycle (useful for testing).
func (a *App) RunOnce(ctx context.Context) {
	a.runCycle(ctx)
}

// runCycle analyzes every watchlist symbol and delivers the reports.
func (a *App) runCycle(ctx context.Context) {
	symbols := a.GetWatchlist()
	if len(symbols) == 0 {
		a.logger.Debug("watchlist is empty")
		return
	}

	a.logger.Debug("starting analysis cycle", zap.Int("symbols", len(symbols)))

	reports := make([]*core.Report, 0, len(symbols))
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}

		opts := a.Options()
		if opts.Market == "" {
			opts.Market = DetectMarket(symbol)
		}

		result, err := a.runner.Run(ctx, symbol, opts)
		if err != nil {
			a.logger.Warn("analysis failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}

		rep := result.Report()
		reports = append(reports, rep)
		if _, err := a.reports.Save(ctx, rep); err != nil {
			a.logger.Warn("storing report failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}

	if len(reports) == 0 {
		return
	}

	a.deliver(reports)
}

// Notify sends reports through every registered notifier and returns the
// first delivery error, if any.
func (a *App) Notify(reports []*core.Report) error {
	errs := a.notifiers.NotifyAllBatch(reports)
	for name, err := range errs {
		status := "success"
		if err != nil {
			status = "error"
		}
		a.registry.RecordReportSent(name, status)
	}
	for name, err := range errs {
		if err != nil {
			return fmt.Errorf("notifier %s: %w", name, err)
		}
	}
	return nil
}

// deliver sends the cycle's reports through every registered notifier.
func (a *App) deliver(reports []*core.Report) {
	errs := a.notifiers.NotifyAllBatch(reports)
	for name, err := range errs {
		status := "success"
		if err != nil {
			status = "error"
			a.logger.Error("report delivery failed",
				zap.String("notifier", name),
				zap.Error(err),
			)
		}
		a.registry.RecordReportSent(name, status)
	}
}

// GetStats returns application statistics.
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"running":    a.running,
		"watchlist":  len(a.watchlist),
		"collectors": len(a.collectors.GetAll()),
		"metrics":    len(a.engine.Names()),
		"notifiers":  len(a.notifiers.GetAll()),
	}
}

// DetectMarket guesses the market from the symbol pattern.
func DetectMarket(symbol string) core.Market {
	upper := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(upper, ".HK"):
		return core.MarketHK
	case strings.Contains(upper, "-USD") || strings.Contains(upper, "USDT") ||
		strings.HasPrefix(upper, "BTC") || strings.HasPrefix(upper, "ETH"):
		return core.MarketCrypto
	default:
		return core.MarketUS
	}
}
