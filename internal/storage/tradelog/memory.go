// internal/storage/tradelog/memory.go
package tradelog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/augur/internal/core"
)

// MemoryStore keeps the trade log in process. Alert history is capped at
// maxAlerts, oldest dropped first.
type MemoryStore struct {
	mu        sync.RWMutex
	trades    map[string]core.Trade
	alerts    []core.Alert
	maxAlerts int
}

// NewMemoryStore creates an empty in-memory trade log.
func NewMemoryStore(maxAlerts int) *MemoryStore {
	if maxAlerts <= 0 {
		maxAlerts = 10000
	}
	return &MemoryStore{
		trades:    make(map[string]core.Trade),
		maxAlerts: maxAlerts,
	}
}

// SaveTrade stores trade, assigning an ID when it has none.
func (m *MemoryStore) SaveTrade(ctx context.Context, trade core.Trade) error {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = trade
	return nil
}

// RecordAlert appends alert to the history.
func (m *MemoryStore) RecordAlert(ctx context.Context, alert core.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > m.maxAlerts {
		m.alerts = m.alerts[len(m.alerts)-m.maxAlerts:]
	}
	return nil
}

// GetTradeLog returns trades entered in [from, to], oldest first.
func (m *MemoryStore) GetTradeLog(ctx context.Context, signalID string, from, to time.Time) ([]core.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Trade
	for _, t := range m.trades {
		if signalID != "" && t.SignalID != signalID {
			continue
		}
		if inRange(t.EntryTime, from, to) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EntryTime.Equal(result[j].EntryTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].EntryTime.Before(result[j].EntryTime)
	})
	return result, nil
}

// GetOpenPositions returns every trade without a final outcome.
func (m *MemoryStore) GetOpenPositions(ctx context.Context) ([]core.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Position
	for _, t := range m.trades {
		if t.Outcome == core.OutcomeOpen {
			result = append(result, core.Position{SignalID: t.SignalID, OptionType: t.OptionType, Status: t.Outcome})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SignalID < result[j].SignalID })
	return result, nil
}

// ListAlerts returns alerts received in [from, to], oldest first.
func (m *MemoryStore) ListAlerts(ctx context.Context, from, to time.Time) ([]core.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Alert
	for _, a := range m.alerts {
		if inRange(a.Timestamp, from, to) {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
