// internal/storage/report/memory.go
package report

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/newthinker/prism/internal/core"
)

// MemoryStore is an in-memory report store.
type MemoryStore struct {
	entries []Entry
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a report to the store and returns its ID.
func (m *MemoryStore) Save(ctx context.Context, report *core.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.entries = append(m.entries, Entry{ID: id, Report: report})

	// Trim if over capacity (remove oldest)
	if len(m.entries) > m.maxSize {
		m.entries = m.entries[len(m.entries)-m.maxSize:]
	}

	return id, nil
}

// GetByID retrieves a report by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, core.ErrJobNotFound
}

// List returns reports matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.matches(m.entries[i], filter) {
			result = append(result, m.entries[i])
		}
	}

	// Apply offset and limit
	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset >= len(result) && filter.Offset > 0 {
		return []Entry{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching reports.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, e := range m.entries {
		if m.matches(e, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(e Entry, filter ListFilter) bool {
	r := e.Report
	if filter.Symbol != "" && r.Symbol != filter.Symbol {
		return false
	}
	if filter.Market != "" && r.Market != filter.Market {
		return false
	}
	if filter.Window > 0 && r.Window != filter.Window {
		return false
	}
	if !filter.From.IsZero() && r.GeneratedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && r.GeneratedAt.After(filter.To) {
		return false
	}
	return true
}
