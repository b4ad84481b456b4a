package metric

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/prism/internal/core"
	"go.uber.org/zap"
)

// Engine manages and runs metrics
type Engine struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	logger  *zap.Logger
}

// NewEngine creates a new metric engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		metrics: make(map[string]Metric),
		logger:  l,
	}
}

// Register adds a metric to the engine
func (e *Engine) Register(m Metric) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics[m.Name()] = m
}

// Get retrieves a metric by name
func (e *Engine) Get(name string) (Metric, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.metrics[name]
	return m, ok
}

// Names returns the names of all registered metrics, sorted
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComputeAll runs every registered metric on the given bars. A metric that
// fails is logged and skipped; the remaining metrics still run.
func (e *Engine) ComputeAll(ctx context.Context, bars []core.OHLCV, window int) (map[string]*core.Series, error) {
	e.mu.RLock()
	metrics := make([]Metric, 0, len(e.metrics))
	for _, m := range e.metrics {
		metrics = append(metrics, m)
	}
	e.mu.RUnlock()

	results := make(map[string]*core.Series, len(metrics))

	for _, m := range metrics {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		series, err := m.Compute(bars, window)
		if err != nil {
			e.logger.Warn("metric computation failed",
				zap.String("metric", m.Name()),
				zap.Error(err),
			)
			continue
		}

		results[m.Name()] = series
	}

	return results, nil
}

// ComputeNamed runs specific metrics by name. An unknown name is an error.
func (e *Engine) ComputeNamed(ctx context.Context, bars []core.OHLCV, window int, names []string) (map[string]*core.Series, error) {
	results := make(map[string]*core.Series, len(names))

	for _, name := range names {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		m, ok := e.Get(name)
		if !ok {
			return results, core.WrapError(core.ErrMetricUnknown, fmt.Errorf("metric %q", name))
		}

		series, err := m.Compute(bars, window)
		if err != nil {
			e.logger.Warn("metric computation failed",
				zap.String("metric", name),
				zap.Error(err),
			)
			continue
		}

		results[name] = series
	}

	return results, nil
}
