package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/notifier"
)

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   "https://api.telegram.org",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithAPIURL creates a Telegram notifier with custom API URL (for testing)
func NewWithAPIURL(botToken, chatID, apiURL string) *Telegram {
	t := New(botToken, chatID)
	t.apiURL = apiURL
	return t
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}

	return nil
}

func (t *Telegram) Send(report *core.Report) error {
	return t.sendMessage(t.formatReport(report))
}

func (t *Telegram) SendBatch(reports []*core.Report) error {
	if len(reports) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d Analysis Reports*\n\n", len(reports)))

	for i, report := range reports {
		sb.WriteString(t.formatReport(report))
		if i < len(reports)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(sb.String())
}

func (t *Telegram) formatReport(report *core.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📈 *%s* (%s, window %d)\n", report.Symbol, report.Market, report.Window))
	sb.WriteString(fmt.Sprintf("🗓 %s → %s\n",
		report.Start.Format("2006-01-02"), report.End.Format("2006-01-02")))

	for _, name := range sortedMetricNames(report.Metrics) {
		m := report.Metrics[name]
		sb.WriteString(fmt.Sprintf("\n*%s*\n", name))
		sb.WriteString(fmt.Sprintf("  upside: %.4f  downside: %.4f\n", m.Upside, m.Downside))
		sb.WriteString(fmt.Sprintf("  composite: %.4f  independence: %.4f\n", m.Composite, m.Independence))
		sb.WriteString(fmt.Sprintf("  valid points: %d\n", m.ValidPoints))
	}

	sb.WriteString(fmt.Sprintf("\n⏰ %s", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

func sortedMetricNames(metrics map[string]core.MeasureMeans) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
			if desc, ok := result["description"].(string); ok {
				return fmt.Errorf("telegram: API error: %s", desc)
			}
		}
		return fmt.Errorf("telegram: unexpected status: %d", resp.StatusCode)
	}

	return nil
}
