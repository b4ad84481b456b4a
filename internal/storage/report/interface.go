// internal/storage/report/interface.go
package report

import (
	"context"
	"time"

	"github.com/newthinker/prism/internal/core"
)

// Entry is a stored report with its assigned ID.
type Entry struct {
	ID     string       `json:"id"`
	Report *core.Report `json:"report"`
}

// Store defines the interface for report history persistence.
type Store interface {
	// Save persists a report and returns its assigned ID.
	Save(ctx context.Context, report *core.Report) (string, error)

	// GetByID retrieves a report by its ID.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// List retrieves reports matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)

	// Count returns the number of reports matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing reports.
type ListFilter struct {
	Symbol string
	Market string
	Window int
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
