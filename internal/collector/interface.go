package collector

import (
	"context"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Config holds collector configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Quote is the latest traded level of an index.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Volume        int64     `json:"volume"`
	Time          time.Time `json:"time"`
	Source        string    `json:"source"`
}

// Change returns the move since the previous close in percent.
func (q Quote) Change() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return (q.Price - q.PreviousClose) / q.PreviousClose * 100
}

// Collector defines the interface for market data sources
type Collector interface {
	Name() string
	Init(cfg Config) error

	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
