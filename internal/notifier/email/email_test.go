package email

import (
	"strings"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/notifier"
)

func sampleReport() *core.Report {
	return &core.Report{
		Symbol: "AAPL",
		Market: "US",
		Window: 30,
		Start:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Metrics: map[string]core.MeasureMeans{
			"performance_ratio": {
				Upside:       0.42,
				Downside:     -0.17,
				Composite:    0.59,
				Independence: 0.93,
				ValidPoints:  87,
			},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestEmail_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Email)(nil)
}

func TestEmail_Name(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})
	if e.Name() != "email" {
		t.Errorf("expected 'email', got %s", e.Name())
	}
}

func TestEmail_Init(t *testing.T) {
	e := &Email{}
	err := e.Init(notifier.Config{
		Params: map[string]any{
			"host": "smtp.example.com",
			"port": 587,
			"from": "prism@example.com",
			"to":   []string{"ops@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.host != "smtp.example.com" || e.port != 587 {
		t.Errorf("unexpected host config: %s:%d", e.host, e.port)
	}
}

func TestEmail_Init_RequiresHostFromTo(t *testing.T) {
	cases := []map[string]any{
		{"from": "a@b.c", "to": []string{"x@y.z"}},
		{"host": "smtp.example.com", "to": []string{"x@y.z"}},
		{"host": "smtp.example.com", "from": "a@b.c"},
	}
	for i, params := range cases {
		e := &Email{}
		if err := e.Init(notifier.Config{Params: params}); err == nil {
			t.Errorf("case %d: expected error, got nil", i)
		}
	}
}

func TestEmail_RenderReports(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})
	body := e.renderReports([]*core.Report{sampleReport()})

	for _, want := range []string{"<html>", "AAPL", "performance_ratio", "0.4200", "87"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestEmail_SendBatchEmpty(t *testing.T) {
	e := New("smtp.example.com", 587, "", "", "from@example.com", []string{"to@example.com"})
	if err := e.SendBatch(nil); err != nil {
		t.Errorf("expected nil for empty batch, got %v", err)
	}
}
