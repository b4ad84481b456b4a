package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/prism/internal/collector"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/indicator"
	"github.com/newthinker/prism/internal/metric"
	"github.com/newthinker/prism/internal/metrics"
	"github.com/newthinker/prism/internal/regime"
	"github.com/newthinker/prism/internal/smoothing"
	"github.com/newthinker/prism/internal/storage/archive"
	"go.uber.org/zap"
)

// Options controls a single analysis run.
type Options struct {
	MarketSymbol string
	Market       core.Market
	Window       int
	Interval     string
	Source       string // collector name; empty picks by market
	Start        time.Time
	End          time.Time
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = 30
	}
	if o.Interval == "" {
		o.Interval = "1d"
	}
	if o.Market == "" {
		o.Market = core.MarketUS
	}
	if o.End.IsZero() {
		o.End = time.Now()
	}
	if o.Start.IsZero() {
		o.Start = o.End.AddDate(-2, 0, 0)
	}
	return o
}

// Runner orchestrates fetching, metric computation, regime analysis and
// smoothing for one or more symbols against a market benchmark.
type Runner struct {
	collectors *collector.Registry
	engine     *metric.Engine
	smoother   *smoothing.Filter
	store      archive.Storage
	registry   *metrics.Registry
	logger     *zap.Logger
}

// NewRunner creates a new analysis runner
func NewRunner(collectors *collector.Registry, engine *metric.Engine, logger ...*zap.Logger) *Runner {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Runner{
		collectors: collectors,
		engine:     engine,
		logger:     l,
	}
}

// SetSmoother enables output smoothing. A nil filter disables it.
func (r *Runner) SetSmoother(f *smoothing.Filter) {
	r.smoother = f
}

// SetStore enables artifact persistence for completed analyses.
func (r *Runner) SetStore(s archive.Storage) {
	r.store = s
}

// SetMetrics enables Prometheus instrumentation.
func (r *Runner) SetMetrics(reg *metrics.Registry) {
	r.registry = reg
}

// Run analyzes a single symbol against the benchmark in opts.
func (r *Runner) Run(ctx context.Context, symbol string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if symbol == "" || opts.MarketSymbol == "" {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("symbol and market symbol are required"))
	}

	started := time.Now()
	result, err := r.run(ctx, symbol, opts)

	if r.registry != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.registry.RecordAnalysis(status, time.Since(started).Seconds())
	}

	return result, err
}

func (r *Runner) run(ctx context.Context, symbol string, opts Options) (*Result, error) {
	c, err := r.pickCollector(opts)
	if err != nil {
		return nil, err
	}

	assetBars, err := r.fetch(ctx, c, symbol, opts)
	if err != nil {
		return nil, err
	}
	marketBars, err := r.fetch(ctx, c, opts.MarketSymbol, opts)
	if err != nil {
		return nil, err
	}

	assetBars, marketBars = alignBars(assetBars, marketBars)
	if len(assetBars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no overlapping bars for %s and %s", symbol, opts.MarketSymbol))
	}
	if len(assetBars) <= opts.Window {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d aligned bars, need more than %d", len(assetBars), opts.Window))
	}

	assetCloses := core.CloseSeries(assetBars)
	marketCloses := core.CloseSeries(marketBars)
	marketReturns := indicator.Returns(marketCloses)

	series, err := r.engine.ComputeAll(ctx, assetBars, opts.Window)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*MetricResult, len(series))
	for name, s := range series {
		bundle, err := regime.Analyze(s, marketReturns, opts.Window)
		if err != nil {
			r.logger.Warn("regime analysis failed",
				zap.String("symbol", symbol),
				zap.String("metric", name),
				zap.Error(err),
			)
			continue
		}
		r.smooth(bundle)
		results[name] = &MetricResult{Series: s, Sensitivity: bundle}
	}

	result := &Result{
		Symbol:       symbol,
		MarketSymbol: opts.MarketSymbol,
		Market:       opts.Market,
		Window:       opts.Window,
		Interval:     opts.Interval,
		Start:        assetBars[0].Time,
		End:          assetBars[len(assetBars)-1].Time,
		Prices:       Prices{Asset: assetCloses, Market: marketCloses},
		Metrics:      results,
		GeneratedAt:  time.Now().UTC(),
	}

	if r.store != nil {
		if err := r.persist(ctx, result); err != nil {
			r.logger.Warn("artifact write failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// RunBatch analyzes each symbol in turn. A symbol that fails is logged and
// skipped; the rest of the batch still runs.
func (r *Runner) RunBatch(ctx context.Context, symbols []string, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(symbols))

	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		result, err := r.Run(ctx, symbol, opts)
		if err != nil {
			r.logger.Warn("symbol analysis failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (r *Runner) pickCollector(opts Options) (collector.Collector, error) {
	if opts.Source != "" {
		c, ok := r.collectors.Get(opts.Source)
		if !ok {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown collector %q", opts.Source))
		}
		return c, nil
	}
	c, ok := r.collectors.ForMarket(opts.Market)
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("no collector for market %s", opts.Market))
	}
	return c, nil
}

func (r *Runner) fetch(ctx context.Context, c collector.Collector, symbol string, opts Options) ([]core.OHLCV, error) {
	bars, err := c.FetchHistory(ctx, symbol, opts.Start, opts.End, opts.Interval)

	if r.registry != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.registry.RecordFetch(c.Name(), status)
	}

	if err != nil {
		return nil, err
	}
	return bars, nil
}

func (r *Runner) smooth(b *regime.Bundle) {
	if r.smoother == nil {
		return
	}
	b.Upside = r.smoother.Apply(b.Upside)
	b.Downside = r.smoother.Apply(b.Downside)
	b.Composite = r.smoother.Apply(b.Composite)
	b.Independence = r.smoother.Apply(b.Independence)
}

func (r *Runner) persist(ctx context.Context, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	path := fmt.Sprintf("analysis/%s/%s_w%d.json",
		result.Symbol, result.GeneratedAt.Format("20060102T150405Z"), result.Window)
	if err := r.store.Write(ctx, path, data); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// alignBars keeps only the timestamps both histories share, preserving
// chronological order.
func alignBars(a, b []core.OHLCV) ([]core.OHLCV, []core.OHLCV) {
	sort.Slice(a, func(i, j int) bool { return a[i].Time.Before(a[j].Time) })
	sort.Slice(b, func(i, j int) bool { return b[i].Time.Before(b[j].Time) })

	outA := make([]core.OHLCV, 0, len(a))
	outB := make([]core.OHLCV, 0, len(b))

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Time.Before(b[j].Time):
			i++
		case b[j].Time.Before(a[i].Time):
			j++
		default:
			outA = append(outA, a[i])
			outB = append(outB, b[j])
			i++
			j++
		}
	}
	return outA, outB
}
