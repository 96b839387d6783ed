// internal/storage/tradelog/interface.go
package tradelog

import (
	"context"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Store is the trade log: executed trades, their outcomes and the alerts
// that triggered them. Reads satisfy context.TradeLog and
// validation.AlertHistory.
type Store interface {
	GetTradeLog(ctx context.Context, signalID string, from, to time.Time) ([]core.Trade, error)
	GetOpenPositions(ctx context.Context) ([]core.Position, error)
	ListAlerts(ctx context.Context, from, to time.Time) ([]core.Alert, error)

	// RecordAlert appends a received alert to the alert history.
	RecordAlert(ctx context.Context, alert core.Alert) error

	// SaveTrade inserts a trade or updates it when the ID is already known.
	SaveTrade(ctx context.Context, trade core.Trade) error

	Close()
}
