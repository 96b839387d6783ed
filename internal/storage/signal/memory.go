// internal/storage/signal/memory.go
package signal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// MemoryStore is a bounded in-memory summary store.
type MemoryStore struct {
	summaries []core.SignalSummary
	maxSize   int
	mu        sync.RWMutex
	counter   int64
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &MemoryStore{
		summaries: make([]core.SignalSummary, 0, maxSize),
		maxSize:   maxSize,
	}
}

// Save adds a summary to the store.
func (m *MemoryStore) Save(ctx context.Context, summary core.SignalSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	if summary.ID == "" {
		summary.ID = fmt.Sprintf("sig_%d_%d", time.Now().UnixNano(), m.counter)
	}

	m.summaries = append(m.summaries, summary)

	// Trim if over capacity (remove oldest)
	if len(m.summaries) > m.maxSize {
		m.summaries = m.summaries[len(m.summaries)-m.maxSize:]
	}

	return nil
}

// GetByID retrieves a summary by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*core.SignalSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.summaries {
		if m.summaries[i].ID == id {
			s := m.summaries[i]
			return &s, nil
		}
	}
	return nil, core.ErrNotFound
}

// List returns summaries matching the filter, most recently saved first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.SignalSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.SignalSummary{}
	for i := len(m.summaries) - 1; i >= 0; i-- {
		if m.matches(m.summaries[i], filter) {
			result = append(result, m.summaries[i])
		}
	}

	// Apply offset and limit
	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset > 0 {
		return []core.SignalSummary{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching summaries.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, s := range m.summaries {
		if m.matches(s, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(s core.SignalSummary, filter ListFilter) bool {
	if filter.SignalID != "" && s.SignalID != filter.SignalID {
		return false
	}
	if filter.Decision != "" && s.Decision != filter.Decision {
		return false
	}
	if !filter.From.IsZero() && s.Timestamp.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && s.Timestamp.After(filter.To) {
		return false
	}
	return true
}
