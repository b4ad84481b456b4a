// internal/api/handler/api/analysis_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/analysis"
	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/collector"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/metric"
	"github.com/newthinker/prism/internal/storage/report"
)

// stubCollector serves deterministic history for any symbol.
type stubCollector struct{}

func (s *stubCollector) Name() string                  { return "stub" }
func (s *stubCollector) SupportedMarkets() []core.Market { return []core.Market{core.MarketUS} }
func (s *stubCollector) Init(cfg collector.Config) error { return nil }

func (s *stubCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.OHLCV, 0, 60)
	for i := 0; i < 60; i++ {
		price := 100 + 5*math.Sin(float64(i)/4)
		bars = append(bars, core.OHLCV{
			Symbol: symbol,
			Time:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.3,
			Volume: 1000,
		})
	}
	return bars, nil
}

func newTestHandler(t *testing.T) (*AnalysisHandler, *job.Store, report.Store) {
	t.Helper()

	collectors := collector.NewRegistry()
	collectors.Register(&stubCollector{})

	engine := metric.NewEngine()
	engine.Register(metric.NewPerformanceRatio())

	runner := analysis.NewRunner(collectors, engine)
	jobStore := job.NewStore(100, time.Hour)
	reports := report.NewMemoryStore(100)

	defaults := analysis.Options{
		MarketSymbol: "^GSPC",
		Market:       core.MarketUS,
		Window:       5,
		Interval:     "1d",
		Source:       "stub",
	}

	return NewAnalysisHandler(jobStore, runner, defaults, reports), jobStore, reports
}

func TestAnalysisHandler_Create(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body := bytes.NewBufferString(`{"symbol": "AAPL"}`)
	req := httptest.NewRequest("POST", "/api/v1/analysis", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["job_id"] == nil {
		t.Error("expected job_id in response")
	}
	if data["status"] != "pending" {
		t.Errorf("expected pending status, got %s", data["status"])
	}
}

func TestAnalysisHandler_Create_MissingSymbol(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest("POST", "/api/v1/analysis", body)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAnalysisHandler_Create_InvalidDates(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body := bytes.NewBufferString(`{"symbol": "AAPL", "start": "not-a-date"}`)
	req := httptest.NewRequest("POST", "/api/v1/analysis", body)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAnalysisHandler_CompletesAndStoresReport(t *testing.T) {
	handler, jobStore, reports := newTestHandler(t)

	body := bytes.NewBufferString(`{"symbol": "AAPL"}`)
	req := httptest.NewRequest("POST", "/api/v1/analysis", body)
	w := httptest.NewRecorder()

	handler.Create(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	jobID := resp.Data.(map[string]any)["job_id"].(string)

	deadline := time.Now().Add(5 * time.Second)
	var j *job.Job
	for time.Now().Before(deadline) {
		var err error
		j, err = jobStore.Get(jobID)
		if err != nil {
			t.Fatalf("job lookup failed: %v", err)
		}
		if j.Status == job.StatusComplete || j.Status == job.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if j.Status != job.StatusComplete {
		t.Fatalf("expected complete, got %s (error: %v)", j.Status, j.Error)
	}
	if j.Result == nil {
		t.Error("expected result on completed job")
	}

	count, err := reports.Count(context.Background(), report.ListFilter{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 stored report, got %d", count)
	}
}

func TestAnalysisHandler_GetStatus(t *testing.T) {
	handler, jobStore, _ := newTestHandler(t)

	j := jobStore.Create("analysis")

	req := httptest.NewRequest("GET", "/api/v1/analysis/"+j.ID, nil)
	w := httptest.NewRecorder()

	handler.GetStatus(w, req, j.ID)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["job_id"] != j.ID {
		t.Errorf("expected job_id %s, got %s", j.ID, data["job_id"])
	}
}

func TestAnalysisHandler_GetStatus_NotFound(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/analysis/nonexistent", nil)
	w := httptest.NewRecorder()

	handler.GetStatus(w, req, "nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
