// internal/storage/signal/interface.go
package signal

import (
	"context"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Store keeps summaries of processed signals for the dashboard.
type Store interface {
	// Save persists a summary, assigning an ID when it has none.
	Save(ctx context.Context, summary core.SignalSummary) error

	// GetByID retrieves a summary by its ID.
	GetByID(ctx context.Context, id string) (*core.SignalSummary, error)

	// List returns summaries matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.SignalSummary, error)

	// Count returns the number of summaries matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing summaries.
type ListFilter struct {
	SignalID string
	Decision core.DecisionLabel
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
