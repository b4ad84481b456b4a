package notifier

import (
	"github.com/newthinker/prism/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notifier defines the interface for report delivery
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single analysis report
	Send(report *core.Report) error

	// SendBatch delivers multiple analysis reports
	SendBatch(reports []*core.Report) error
}
