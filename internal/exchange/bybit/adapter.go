package bybit

import (
	"context"

	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// Adapter implements exchange.Exchange on top of the Bybit client. It
// owns the market catalog, maps every provider error into the taxonomy
// and applies the retry policy. It holds no position state.
type Adapter struct {
	client    *Client
	catalog   *exchange.Catalog
	retryCfg  RetryConfig
	log       *zap.Logger
	connected bool
}

// NewAdapter creates a Bybit adapter. Connect must be called before any
// market or trading operation.
func NewAdapter(cfg Config, log *zap.Logger) *Adapter {
	return &Adapter{
		client:   NewClient(cfg),
		catalog:  exchange.NewCatalog(),
		retryCfg: DefaultRetryConfig(),
		log:      log.Named("bybit"),
	}
}

// Name returns the exchange name.
func (a *Adapter) Name() string {
	return "bybit"
}

// Catalog exposes the market catalog for components that resolve
// symbols outside the adapter, like the websocket stream.
func (a *Adapter) Catalog() *exchange.Catalog {
	return a.catalog
}

// Connect loads the market catalog, which doubles as the connectivity
// and credential check.
func (a *Adapter) Connect(ctx context.Context) error {
	if err := a.RefreshMarkets(ctx); err != nil {
		a.connected = false
		return exchange.WrapError(exchange.KindConnection, "connect", err)
	}
	a.connected = true
	a.log.Info("connected",
		zap.String("environment", a.client.Environment()),
		zap.Int("markets", a.catalog.Len()))
	return nil
}

// Disconnect marks the adapter disconnected. The underlying HTTP client
// is stateless.
func (a *Adapter) Disconnect() error {
	a.connected = false
	return nil
}

// IsConnected reports whether Connect succeeded.
func (a *Adapter) IsConnected() bool {
	return a.connected
}

// RefreshMarkets re-fetches the instrument catalog on demand.
func (a *Adapter) RefreshMarkets(ctx context.Context) error {
	var instruments []types.Instrument
	err := retry(ctx, a.retryCfg, "refresh_markets", func() error {
		var callErr error
		instruments, callErr = a.client.GetInstruments(ctx)
		return mapError("refresh_markets", callErr)
	})
	if err != nil {
		return err
	}
	a.catalog.Replace(instruments)
	return nil
}

// NormalizeSymbol converts any accepted symbol form to canonical
// BASE/QUOTE via the market catalog.
func (a *Adapter) NormalizeSymbol(symbol string) string {
	return a.catalog.Normalize(symbol)
}

// GetTicker fetches the latest price for a symbol.
func (a *Adapter) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	canonical := a.NormalizeSymbol(symbol)

	var ticker *types.Ticker
	err := retry(ctx, a.retryCfg, "get_ticker", func() error {
		var callErr error
		ticker, callErr = a.client.GetTicker(ctx, exchange.CompactSymbol(canonical))
		return mapError("get_ticker", callErr)
	})
	if err != nil {
		return nil, err
	}
	ticker.Symbol = canonical
	return ticker, nil
}

// GetKlines fetches candle history, oldest first.
func (a *Adapter) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	canonical := a.NormalizeSymbol(symbol)

	var candles []types.OHLCV
	err := retry(ctx, a.retryCfg, "get_klines", func() error {
		var callErr error
		candles, callErr = a.client.GetKlines(ctx, exchange.CompactSymbol(canonical), interval, limit)
		return mapError("get_klines", callErr)
	})
	return candles, err
}

// GetOrderBook fetches a depth snapshot.
func (a *Adapter) GetOrderBook(ctx context.Context, symbol string, depth int) (*exchange.OrderBook, error) {
	canonical := a.NormalizeSymbol(symbol)

	var snapshot *OrderBookSnapshot
	err := retry(ctx, a.retryCfg, "get_order_book", func() error {
		var callErr error
		snapshot, callErr = a.client.GetOrderBook(ctx, exchange.CompactSymbol(canonical), depth)
		return mapError("get_order_book", callErr)
	})
	if err != nil {
		return nil, err
	}

	book := &exchange.OrderBook{Symbol: canonical}
	for _, b := range snapshot.Bids {
		book.Bids = append(book.Bids, exchange.PriceLevel{Price: b[0], Size: b[1]})
	}
	for _, s := range snapshot.Asks {
		book.Asks = append(book.Asks, exchange.PriceLevel{Price: s[0], Size: s[1]})
	}
	return book, nil
}

// GetInstrument returns the exchange constraints for a symbol from the
// market catalog.
func (a *Adapter) GetInstrument(ctx context.Context, symbol string) (*types.Instrument, error) {
	canonical := a.NormalizeSymbol(symbol)
	if in, ok := a.catalog.Get(canonical); ok {
		return &in, nil
	}

	// Catalog miss: refresh once, the listing may be new.
	if err := a.RefreshMarkets(ctx); err != nil {
		return nil, err
	}
	if in, ok := a.catalog.Get(a.NormalizeSymbol(symbol)); ok {
		return &in, nil
	}
	return nil, exchange.NewError(exchange.KindBadSymbol, "get_instrument", "symbol not in market catalog: "+symbol)
}

// GetBalances fetches a fresh balance snapshot.
func (a *Adapter) GetBalances(ctx context.Context) (map[string]types.Balance, error) {
	var balances map[string]types.Balance
	err := retry(ctx, a.retryCfg, "get_balances", func() error {
		var callErr error
		balances, callErr = a.client.GetBalances(ctx)
		return mapError("get_balances", callErr)
	})
	return balances, err
}

// PlaceOrder submits an order. The balance check beforehand is advisory
// only: the exchange remains authoritative and a shortfall is logged,
// not enforced. Ambiguous failures (timeout after send) are never
// retried to avoid duplicate orders; only unambiguous pre-submission
// failures are attempted again with backoff.
func (a *Adapter) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (*types.Order, error) {
	if !a.connected {
		return nil, exchange.NewError(exchange.KindConnection, "place_order", "adapter not connected")
	}

	canonical := a.NormalizeSymbol(req.Symbol)
	a.checkBalance(ctx, canonical, req)

	params := OrderParams{
		Symbol:    exchange.CompactSymbol(canonical),
		Side:      req.Side,
		OrderType: req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
	}

	order, err := a.client.PlaceOrder(ctx, params)
	if err != nil {
		mapped := mapError("place_order", err)
		if !isPreSubmission(mapped) {
			return nil, mapped
		}
		err = retry(ctx, a.retryCfg, "place_order", func() error {
			var callErr error
			order, callErr = a.client.PlaceOrder(ctx, params)
			return mapError("place_order", callErr)
		})
		if err != nil {
			return nil, err
		}
	}

	order.Symbol = canonical
	a.log.Info("order placed",
		zap.String("symbol", canonical),
		zap.String("side", string(req.Side)),
		zap.String("type", string(req.Type)),
		zap.Float64("quantity", req.Quantity),
		zap.String("exchange_order_id", order.ExchangeOrderID))
	return order, nil
}

// CancelOrder cancels an open order.
func (a *Adapter) CancelOrder(ctx context.Context, symbol, orderID string) error {
	canonical := a.NormalizeSymbol(symbol)
	err := a.client.CancelOrder(ctx, exchange.CompactSymbol(canonical), orderID)
	return mapError("cancel_order", err)
}

// checkBalance estimates the funds an order needs and warns when the
// free balance looks short. Known race under concurrent orders sharing
// one currency: both can pass here and only one succeeds at the
// exchange, which is the intended authority.
func (a *Adapter) checkBalance(ctx context.Context, canonical string, req exchange.OrderRequest) {
	balances, err := a.GetBalances(ctx)
	if err != nil {
		a.log.Warn("balance check skipped", zap.Error(err))
		return
	}

	base, quote := exchange.SplitSymbol(canonical)

	if req.Side == types.SideBuy {
		price := req.Price
		if req.Type == types.OrderTypeMarket {
			if ticker, err := a.GetTicker(ctx, canonical); err == nil {
				price = ticker.Price
			}
		}
		required := req.Quantity * price
		if free := balances[quote].Free; required > 0 && free < required {
			a.log.Warn("advisory balance check failed, proceeding",
				zap.String("symbol", canonical),
				zap.String("asset", quote),
				zap.Float64("required", required),
				zap.Float64("free", free))
		}
		return
	}

	if free := balances[base].Free; free < req.Quantity {
		a.log.Warn("advisory balance check failed, proceeding",
			zap.String("symbol", canonical),
			zap.String("asset", base),
			zap.Float64("required", req.Quantity),
			zap.Float64("free", free))
	}
}
