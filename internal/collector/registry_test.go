package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/core"
)

type mockCollector struct {
	name    string
	markets []core.Market
}

func (m *mockCollector) Name() string                    { return m.name }
func (m *mockCollector) SupportedMarkets() []core.Market { return m.markets }
func (m *mockCollector) Init(cfg Config) error           { return nil }
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	return nil, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "mock"})

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected collector to be registered")
	}
	if c.Name() != "mock" {
		t.Errorf("expected 'mock', got '%s'", c.Name())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing collector to not be found")
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "a"})
	r.Register(&mockCollector{name: "b"})

	if got := len(r.GetAll()); got != 2 {
		t.Errorf("expected 2 collectors, got %d", got)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "zeta"})
	r.Register(&mockCollector{name: "alpha"})

	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("expected sorted names [alpha zeta], got %v", names)
	}
}

func TestRegistry_ForMarket(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "stocks", markets: []core.Market{core.MarketUS, core.MarketHK}})
	r.Register(&mockCollector{name: "crypto", markets: []core.Market{core.MarketCrypto}})

	c, ok := r.ForMarket(core.MarketCrypto)
	if !ok || c.Name() != "crypto" {
		t.Errorf("expected crypto collector, got %v %v", c, ok)
	}

	if _, ok := r.ForMarket(core.MarketEU); ok {
		t.Error("expected no collector for EU market")
	}
}
