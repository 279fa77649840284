package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// intervals maps the bot's interval notation to Bybit's wire format.
var intervals = map[string]string{
	"1m":  "1",
	"3m":  "3",
	"5m":  "5",
	"15m": "15",
	"30m": "30",
	"1h":  "60",
	"2h":  "120",
	"4h":  "240",
	"1d":  "D",
	"1w":  "W",
}

// GetKlines fetches candle data, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	wireInterval, ok := intervals[interval]
	if !ok {
		wireInterval = interval
	}
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
		"interval": wireInterval,
		"limit":    limit,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	}
	if err := decodeResult(result, &klineResult); err != nil {
		return nil, err
	}

	// Bybit returns klines newest first; flip into chronological order.
	candles := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		row := klineResult.List[i]
		if len(row) < 6 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: time.UnixMilli(parseInt64(row[0])),
			Open:      parseFloat64(row[1]),
			High:      parseFloat64(row[2]),
			Low:       parseFloat64(row[3]),
			Close:     parseFloat64(row[4]),
			Volume:    parseFloat64(row[5]),
		})
	}

	return candles, nil
}

// GetTicker fetches the latest price snapshot for a symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return nil, err
	}

	var tickerResult struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Volume24h string `json:"volume24h"`
		} `json:"list"`
	}
	if err := decodeResult(result, &tickerResult); err != nil {
		return nil, err
	}
	if len(tickerResult.List) == 0 {
		return nil, fmt.Errorf("no ticker data for symbol %s", symbol)
	}

	t := tickerResult.List[0]
	return &types.Ticker{
		Symbol:    t.Symbol,
		Price:     parseFloat64(t.LastPrice),
		Volume:    parseFloat64(t.Volume24h),
		Timestamp: time.Now().UTC(),
	}, nil
}

// OrderBookSnapshot is the raw depth response, bids and asks as
// [price, size] string pairs.
type OrderBookSnapshot struct {
	Symbol string
	Bids   [][2]float64
	Asks   [][2]float64
}

// GetOrderBook fetches an order book depth snapshot.
func (c *Client) GetOrderBook(ctx context.Context, symbol string, depth int) (*OrderBookSnapshot, error) {
	if depth <= 0 {
		depth = 25
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
		"limit":    depth,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetOrderBookInfo(ctx)
	if err != nil {
		return nil, err
	}

	var bookResult struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
	}
	if err := decodeResult(result, &bookResult); err != nil {
		return nil, err
	}

	snapshot := &OrderBookSnapshot{Symbol: bookResult.Symbol}
	for _, b := range bookResult.Bids {
		if len(b) >= 2 {
			snapshot.Bids = append(snapshot.Bids, [2]float64{parseFloat64(b[0]), parseFloat64(b[1])})
		}
	}
	for _, a := range bookResult.Asks {
		if len(a) >= 2 {
			snapshot.Asks = append(snapshot.Asks, [2]float64{parseFloat64(a[0]), parseFloat64(a[1])})
		}
	}

	return snapshot, nil
}

// GetInstruments fetches the tradable instrument catalog for the spot
// category.
func (c *Client) GetInstruments(ctx context.Context) ([]types.Instrument, error) {
	params := map[string]interface{}{
		"category": category,
		"limit":    1000,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
	if err != nil {
		return nil, err
	}

	var infoResult struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Status        string `json:"status"`
			BaseCoin      string `json:"baseCoin"`
			QuoteCoin     string `json:"quoteCoin"`
			LotSizeFilter struct {
				MinOrderQty string `json:"minOrderQty"`
				MaxOrderQty string `json:"maxOrderQty"`
				QtyStep     string `json:"basePrecision"`
			} `json:"lotSizeFilter"`
			PriceFilter struct {
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
		} `json:"list"`
	}
	if err := decodeResult(result, &infoResult); err != nil {
		return nil, err
	}

	instruments := make([]types.Instrument, 0, len(infoResult.List))
	for _, in := range infoResult.List {
		if in.Status != "Trading" {
			continue
		}
		instruments = append(instruments, types.Instrument{
			Symbol:      in.BaseCoin + "/" + in.QuoteCoin,
			BaseCoin:    in.BaseCoin,
			QuoteCoin:   in.QuoteCoin,
			MinOrderQty: parseFloat64(in.LotSizeFilter.MinOrderQty),
			MaxOrderQty: parseFloat64(in.LotSizeFilter.MaxOrderQty),
			QtyStep:     parseFloat64(in.LotSizeFilter.QtyStep),
			TickSize:    parseFloat64(in.PriceFilter.TickSize),
		})
	}

	return instruments, nil
}

// decodeResult validates the API envelope and unmarshals its result
// payload into out.
func decodeResult(response interface{}, out interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return fmt.Errorf("unexpected response type %T", response)
	}
	if err := checkRetCode(serverResp.RetCode, serverResp.RetMsg); err != nil {
		return err
	}

	raw, err := json.Marshal(serverResp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	i, _ := strconv.ParseInt(s, 10, 64)
	return i
}
