package storage

import (
	"context"

	"github.com/quangdle/crypto-signal-bot/internal/risk"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// Store persists positions, orders and daily counters so the bot can
// resume after a restart without losing track of open exposure.
type Store interface {
	SavePosition(ctx context.Context, position *types.Position) error
	LoadOpenPositions(ctx context.Context) ([]types.Position, error)
	ListClosedPositions(ctx context.Context, limit int) ([]types.Position, error)

	SaveOrder(ctx context.Context, order *types.Order) error

	SaveDailyCounters(ctx context.Context, counters risk.DailyCounters) error
	LoadDailyCounters(ctx context.Context, date string) (risk.DailyCounters, error)

	Close() error
}
