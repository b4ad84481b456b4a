package metric

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/core"
)

type mockMetric struct {
	name string
	err  error
}

func (m *mockMetric) Name() string        { return m.name }
func (m *mockMetric) Description() string { return "mock metric" }
func (m *mockMetric) Compute(bars []core.OHLCV, window int) (*core.Series, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := core.NewSeries(barTimes(bars))
	for i := range bars {
		s.Set(i, float64(i))
	}
	return s, nil
}

func barTimes(bars []core.OHLCV) []time.Time {
	times := make([]time.Time, len(bars))
	for i, b := range bars {
		times[i] = b.Time
	}
	return times
}

func testBars(n int) []core.OHLCV {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.OHLCV, n)
	for i := range bars {
		bars[i] = core.OHLCV{
			Symbol: "TEST",
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Time:   base.AddDate(0, 0, i),
		}
	}
	return bars
}

func TestEngine_RegisterAndComputeAll(t *testing.T) {
	engine := NewEngine()
	engine.Register(&mockMetric{name: "mock"})

	results, err := engine.ComputeAll(context.Background(), testBars(5), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	series, ok := results["mock"]
	if !ok {
		t.Fatal("expected result for mock metric")
	}
	if series.Len() != 5 {
		t.Errorf("expected series length 5, got %d", series.Len())
	}
}

func TestEngine_ComputeAllSkipsFailures(t *testing.T) {
	engine := NewEngine()
	engine.Register(&mockMetric{name: "good"})
	engine.Register(&mockMetric{name: "bad", err: errors.New("boom")})

	results, err := engine.ComputeAll(context.Background(), testBars(3), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := results["good"]; !ok {
		t.Error("expected result for good metric")
	}
	if _, ok := results["bad"]; ok {
		t.Error("failed metric should not produce a result")
	}
}

func TestEngine_ComputeAllCancelled(t *testing.T) {
	engine := NewEngine()
	engine.Register(&mockMetric{name: "mock"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ComputeAll(ctx, testBars(3), 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_ComputeNamed(t *testing.T) {
	engine := NewEngine()
	engine.Register(&mockMetric{name: "a"})
	engine.Register(&mockMetric{name: "b"})

	results, err := engine.ComputeNamed(context.Background(), testBars(3), 2, []string{"b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, ok := results["b"]; !ok {
		t.Error("expected result for metric b")
	}
}

func TestEngine_ComputeNamedUnknown(t *testing.T) {
	engine := NewEngine()
	engine.Register(&mockMetric{name: "a"})

	_, err := engine.ComputeNamed(context.Background(), testBars(3), 2, []string{"missing"})
	if !errors.Is(err, core.ErrMetricUnknown) {
		t.Errorf("expected ErrMetricUnknown, got %v", err)
	}
}

func TestEngine_Names(t *testing.T) {
	engine := NewEngine()
	engine.Register(&mockMetric{name: "zeta"})
	engine.Register(&mockMetric{name: "alpha"})

	names := engine.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("expected sorted names [alpha zeta], got %v", names)
	}
}
