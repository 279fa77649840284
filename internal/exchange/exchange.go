package exchange

import (
	"context"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// OrderRequest is an order intent approved by the risk manager, ready
// for submission.
type OrderRequest struct {
	Symbol   string
	Side     types.Side
	Type     types.OrderType
	Quantity float64
	Price    float64 // required for limit orders
}

// PriceLevel is one side entry of an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a depth snapshot for a symbol.
type OrderBook struct {
	Symbol string
	Bids   []PriceLevel
	Asks   []PriceLevel
}

// Exchange is the adapter boundary to a trading venue. Implementations
// normalize symbols, map provider errors into the taxonomy in errors.go
// and apply the retry/backoff policy; callers never see provider types.
type Exchange interface {
	Name() string

	// Connection management. Connect loads the market catalog.
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// RefreshMarkets re-fetches the market catalog on demand.
	RefreshMarkets(ctx context.Context) error

	// NormalizeSymbol converts any accepted symbol form to the
	// canonical BASE/QUOTE representation. Unresolvable symbols pass
	// through unchanged.
	NormalizeSymbol(symbol string) string

	// Market data.
	GetTicker(ctx context.Context, symbol string) (*types.Ticker, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error)
	GetOrderBook(ctx context.Context, symbol string, depth int) (*OrderBook, error)
	GetInstrument(ctx context.Context, symbol string) (*types.Instrument, error)

	// Account. Balances are fetched fresh on every call; callers must
	// not cache them across current-ness sensitive operations.
	GetBalances(ctx context.Context) (map[string]types.Balance, error)

	// Trading.
	PlaceOrder(ctx context.Context, req OrderRequest) (*types.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
}
