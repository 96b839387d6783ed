// internal/storage/tradelog/postgres.go
package tradelog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/newthinker/augur/internal/core"
)

// DBPool is the subset of *pgxpool.Pool the store uses.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id            TEXT PRIMARY KEY,
		signal_id     TEXT NOT NULL,
		symbol        TEXT NOT NULL,
		strike        INTEGER NOT NULL,
		option_type   TEXT NOT NULL,
		direction     INTEGER NOT NULL,
		outcome       TEXT NOT NULL,
		entry_time    TIMESTAMPTZ NOT NULL,
		exit_time     TIMESTAMPTZ,
		entry_price   NUMERIC NOT NULL,
		exit_price    NUMERIC,
		pnl           NUMERIC,
		quantity      INTEGER NOT NULL,
		vix_at_entry  DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id            TEXT PRIMARY KEY,
		strategy_name TEXT NOT NULL DEFAULT '',
		strike        INTEGER NOT NULL,
		option_type   TEXT NOT NULL,
		signal        TEXT NOT NULL,
		action        TEXT NOT NULL,
		symbol        TEXT NOT NULL,
		received_at   TIMESTAMPTZ NOT NULL,
		source        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_signal_entry ON trades (signal_id, entry_time)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_received ON alerts (received_at)`,
}

const tradeColumns = `id, signal_id, symbol, strike, option_type, direction, outcome,
	entry_time, exit_time, entry_price, exit_price, pnl, quantity, vix_at_entry`

// PostgresStore is the trade log on PostgreSQL.
type PostgresStore struct {
	pool DBPool
}

// NewPostgresStore connects to dsn and makes sure the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing trade log dsn: %w", err))
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("connecting to trade log: %w", err))
	}
	s := NewPostgresStoreFromPool(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool.
func NewPostgresStoreFromPool(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables and indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("migrating trade log: %w", err))
		}
	}
	return nil
}

// SaveTrade upserts trade by ID, assigning one when empty.
func (s *PostgresStore) SaveTrade(ctx context.Context, trade core.Trade) error {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			outcome    = EXCLUDED.outcome,
			exit_time  = EXCLUDED.exit_time,
			exit_price = EXCLUDED.exit_price,
			pnl        = EXCLUDED.pnl`,
		trade.ID, trade.SignalID, trade.Symbol, trade.Strike, string(trade.OptionType), trade.Direction,
		string(trade.Outcome), trade.EntryTime, trade.ExitTime, trade.EntryPrice, trade.ExitPrice,
		trade.PnL, trade.Quantity, trade.VIXAtEntry,
	)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("saving trade %s: %w", trade.ID, err))
	}
	return nil
}

// RecordAlert appends alert to the alert history.
func (s *PostgresStore) RecordAlert(ctx context.Context, alert core.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alerts (id, strategy_name, strike, option_type, signal, action, symbol, received_at, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		alert.ID, alert.StrategyName, alert.Strike, string(alert.Option()), alert.Signal,
		alert.Action, alert.Symbol(), alert.Timestamp, alert.Source,
	)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("recording alert %s: %w", alert.ID, err))
	}
	return nil
}

// GetTradeLog returns trades entered in [from, to], oldest first.
func (s *PostgresStore) GetTradeLog(ctx context.Context, signalID string, from, to time.Time) ([]core.Trade, error) {
	from, to = bounds(from, to)
	rows, err := s.pool.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE ($1 = '' OR signal_id = $1) AND entry_time BETWEEN $2 AND $3
		ORDER BY entry_time, id`,
		signalID, from, to,
	)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("querying trade log: %w", err))
	}
	defer rows.Close()

	var trades []core.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrDataUnavailable, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return trades, nil
}

// GetOpenPositions returns the trades still marked OPEN.
func (s *PostgresStore) GetOpenPositions(ctx context.Context) ([]core.Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT signal_id, option_type, outcome
		FROM trades
		WHERE outcome = $1
		ORDER BY signal_id`,
		string(core.OutcomeOpen),
	)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("querying open positions: %w", err))
	}
	defer rows.Close()

	var positions []core.Position
	for rows.Next() {
		var signalID, optionType, status string
		if err := rows.Scan(&signalID, &optionType, &status); err != nil {
			return nil, core.WrapError(core.ErrDataUnavailable, err)
		}
		positions = append(positions, core.Position{
			SignalID:   signalID,
			OptionType: core.OptionType(optionType),
			Status:     core.TradeOutcome(status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return positions, nil
}

// ListAlerts returns alerts received in [from, to], oldest first.
func (s *PostgresStore) ListAlerts(ctx context.Context, from, to time.Time) ([]core.Alert, error) {
	from, to = bounds(from, to)
	rows, err := s.pool.Query(ctx, `
		SELECT id, strategy_name, strike, option_type, signal, action, symbol, received_at, source
		FROM alerts
		WHERE received_at BETWEEN $1 AND $2
		ORDER BY received_at, id`,
		from, to,
	)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("querying alerts: %w", err))
	}
	defer rows.Close()

	var alerts []core.Alert
	for rows.Next() {
		var (
			a          core.Alert
			optionType string
		)
		if err := rows.Scan(&a.ID, &a.StrategyName, &a.Strike, &optionType, &a.Signal,
			&a.Action, &a.Index, &a.Timestamp, &a.Source); err != nil {
			return nil, core.WrapError(core.ErrDataUnavailable, err)
		}
		a.Type = core.OptionType(optionType)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return alerts, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanTrade(rows pgx.Rows) (core.Trade, error) {
	var (
		t                   core.Trade
		optionType, outcome string
		exitTime            pgtype.Timestamptz
		entryPrice          decimal.Decimal
		exitPrice, pnl      decimal.NullDecimal
	)
	err := rows.Scan(&t.ID, &t.SignalID, &t.Symbol, &t.Strike, &optionType, &t.Direction, &outcome,
		&t.EntryTime, &exitTime, &entryPrice, &exitPrice, &pnl, &t.Quantity, &t.VIXAtEntry)
	if err != nil {
		return core.Trade{}, fmt.Errorf("scanning trade: %w", err)
	}
	t.OptionType = core.OptionType(optionType)
	t.Outcome = core.TradeOutcome(outcome)
	if exitTime.Valid {
		exit := exitTime.Time
		t.ExitTime = &exit
	}
	t.EntryPrice = entryPrice
	t.ExitPrice = exitPrice
	t.PnL = pnl
	return t, nil
}

var (
	minTime = time.Unix(0, 0).UTC()
	maxTime = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// bounds replaces zero range ends with open bounds.
func bounds(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = minTime
	}
	if to.IsZero() {
		to = maxTime
	}
	return from, to
}
