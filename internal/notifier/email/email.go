// Package email implements an SMTP-based email notifier
package email

import (
	"fmt"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/notifier"
)

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) *Email {
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Init(cfg notifier.Config) error {
	if host, ok := cfg.Params["host"].(string); ok {
		e.host = host
	}
	if port, ok := cfg.Params["port"].(int); ok {
		e.port = port
	}
	if username, ok := cfg.Params["username"].(string); ok {
		e.username = username
	}
	if password, ok := cfg.Params["password"].(string); ok {
		e.password = password
	}
	if from, ok := cfg.Params["from"].(string); ok {
		e.from = from
	}
	if to, ok := cfg.Params["to"].([]string); ok {
		e.to = to
	}

	if e.host == "" || e.from == "" || len(e.to) == 0 {
		return fmt.Errorf("email: host, from, and to are required")
	}
	return nil
}

func (e *Email) Send(report *core.Report) error {
	subject := fmt.Sprintf("PRISM Report: %s (window %d)", report.Symbol, report.Window)
	body := e.renderReports([]*core.Report{report})
	return e.sendEmail(subject, body)
}

func (e *Email) SendBatch(reports []*core.Report) error {
	if len(reports) == 0 {
		return nil
	}

	subject := fmt.Sprintf("PRISM Digest: %d Analysis Reports", len(reports))
	body := e.renderReports(reports)
	return e.sendEmail(subject, body)
}

func (e *Email) renderReports(reports []*core.Report) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>PRISM Analysis Reports</h2>")
	sb.WriteString(fmt.Sprintf("<p>Generated at: %s</p>", time.Now().Format("2006-01-02 15:04:05")))

	for _, report := range reports {
		sb.WriteString(fmt.Sprintf("<h3>%s (%s, window %d)</h3>", report.Symbol, report.Market, report.Window))
		sb.WriteString(fmt.Sprintf("<p>%s &rarr; %s</p>",
			report.Start.Format("2006-01-02"), report.End.Format("2006-01-02")))
		sb.WriteString("<table border=\"1\" cellpadding=\"4\">")
		sb.WriteString("<tr><th>Metric</th><th>Upside</th><th>Downside</th><th>Composite</th><th>Independence</th><th>Valid</th></tr>")
		for _, name := range sortedNames(report.Metrics) {
			m := report.Metrics[name]
			sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%.4f</td><td>%.4f</td><td>%.4f</td><td>%.4f</td><td>%d</td></tr>",
				name, m.Upside, m.Downside, m.Composite, m.Independence, m.ValidPoints))
		}
		sb.WriteString("</table>")
	}

	sb.WriteString("</body></html>")
	return sb.String()
}

func sortedNames(metrics map[string]core.MeasureMeans) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Email) sendEmail(subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	if err := smtp.SendMail(addr, auth, e.from, e.to, []byte(msg.String())); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}
