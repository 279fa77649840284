package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quangdle/crypto-signal-bot/internal/risk"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			entry_price REAL NOT NULL,
			quantity REAL NOT NULL,
			stop_loss_price REAL NOT NULL,
			take_profit_price REAL NOT NULL,
			opened_at DATETIME NOT NULL,
			closed_at DATETIME,
			exit_price REAL NOT NULL DEFAULT 0,
			realized_pnl REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			order_type TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			exchange_order_id TEXT,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_counters (
			date TEXT PRIMARY KEY,
			trade_count INTEGER NOT NULL,
			realized_pnl REAL NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// SavePosition inserts or updates a position. Close updates reuse the
// same call since the row id is stable.
func (s *SQLiteStore) SavePosition(ctx context.Context, position *types.Position) error {
	query := `INSERT INTO positions (id, symbol, side, entry_price, quantity, stop_loss_price, take_profit_price, opened_at, closed_at, exit_price, realized_pnl, status)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  closed_at=excluded.closed_at,
			  exit_price=excluded.exit_price,
			  realized_pnl=excluded.realized_pnl,
			  status=excluded.status`
	_, err := s.db.ExecContext(ctx, query,
		position.ID, position.Symbol, string(position.Side), position.EntryPrice, position.Quantity,
		position.StopLossPrice, position.TakeProfitPrice, position.OpenedAt, position.ClosedAt,
		position.ExitPrice, position.RealizedPnL, string(position.Status))
	return err
}

// LoadOpenPositions returns every position still marked OPEN.
func (s *SQLiteStore) LoadOpenPositions(ctx context.Context) ([]types.Position, error) {
	query := `SELECT id, symbol, side, entry_price, quantity, stop_loss_price, take_profit_price, opened_at, closed_at, exit_price, realized_pnl, status
			  FROM positions WHERE status = ?`
	return s.queryPositions(ctx, query, string(types.PositionStatusOpen))
}

// ListClosedPositions returns closed positions, most recent first.
func (s *SQLiteStore) ListClosedPositions(ctx context.Context, limit int) ([]types.Position, error) {
	query := `SELECT id, symbol, side, entry_price, quantity, stop_loss_price, take_profit_price, opened_at, closed_at, exit_price, realized_pnl, status
			  FROM positions WHERE status = ? ORDER BY closed_at DESC LIMIT ?`
	return s.queryPositions(ctx, query, string(types.PositionStatusClosed), limit)
}

func (s *SQLiteStore) queryPositions(ctx context.Context, query string, args ...interface{}) ([]types.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []types.Position
	for rows.Next() {
		var p types.Position
		var side, status string
		var closedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Symbol, &side, &p.EntryPrice, &p.Quantity,
			&p.StopLossPrice, &p.TakeProfitPrice, &p.OpenedAt, &closedAt,
			&p.ExitPrice, &p.RealizedPnL, &status); err != nil {
			return nil, err
		}
		p.Side = types.Side(side)
		p.Status = types.PositionStatus(status)
		if closedAt.Valid {
			t := closedAt.Time
			p.ClosedAt = &t
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// SaveOrder records a submitted order and its terminal status.
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *types.Order) error {
	query := `INSERT INTO orders (id, symbol, side, order_type, quantity, price, exchange_order_id, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  exchange_order_id=excluded.exchange_order_id,
			  status=excluded.status`
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, query,
		order.ID, order.Symbol, string(order.Side), string(order.Type), order.Quantity,
		order.Price, order.ExchangeOrderID, string(order.Status), createdAt)
	return err
}

// SaveDailyCounters upserts the counters for their UTC day.
func (s *SQLiteStore) SaveDailyCounters(ctx context.Context, counters risk.DailyCounters) error {
	query := `INSERT INTO daily_counters (date, trade_count, realized_pnl)
			  VALUES (?, ?, ?)
			  ON CONFLICT(date) DO UPDATE SET
			  trade_count=excluded.trade_count,
			  realized_pnl=excluded.realized_pnl`
	_, err := s.db.ExecContext(ctx, query, counters.Date, counters.TradeCount, counters.RealizedPnL)
	return err
}

// LoadDailyCounters returns the counters for a UTC day, or zero
// counters for that day when none were stored.
func (s *SQLiteStore) LoadDailyCounters(ctx context.Context, date string) (risk.DailyCounters, error) {
	query := `SELECT date, trade_count, realized_pnl FROM daily_counters WHERE date = ?`
	row := s.db.QueryRowContext(ctx, query, date)

	var c risk.DailyCounters
	err := row.Scan(&c.Date, &c.TradeCount, &c.RealizedPnL)
	if err == sql.ErrNoRows {
		return risk.DailyCounters{Date: date}, nil
	}
	if err != nil {
		return risk.DailyCounters{}, err
	}
	return c, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
