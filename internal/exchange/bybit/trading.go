package bybit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// OrderParams carries a ready-to-submit order in the provider's wire
// format.
type OrderParams struct {
	Symbol    string
	Side      types.Side
	OrderType types.OrderType
	Quantity  float64
	Price     float64
}

// PlaceOrder submits an order. A fresh orderLinkId is attached so a
// submission can be reconciled against the exchange even when the
// response is lost.
func (c *Client) PlaceOrder(ctx context.Context, p OrderParams) (*types.Order, error) {
	side := "Buy"
	if p.Side == types.SideSell {
		side = "Sell"
	}
	orderType := "Market"
	if p.OrderType == types.OrderTypeLimit {
		orderType = "Limit"
	}

	orderLinkID := uuid.NewString()
	params := map[string]interface{}{
		"category":    category,
		"symbol":      p.Symbol,
		"side":        side,
		"orderType":   orderType,
		"qty":         formatQty(p.Quantity),
		"orderLinkId": orderLinkID,
	}
	if p.OrderType == types.OrderTypeLimit {
		params["price"] = formatQty(p.Price)
		params["timeInForce"] = "GTC"
	} else {
		// Spot market buys default to quote-denominated qty on Bybit;
		// the bot sizes in base units.
		params["marketUnit"] = "baseCoin"
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, err
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := decodeResult(result, &orderResult); err != nil {
		return nil, err
	}

	price := p.Price
	if p.OrderType == types.OrderTypeMarket {
		// Market fills report through the order endpoint; the last
		// ticker is the caller's best estimate until then.
		price = 0
	}

	return &types.Order{
		ID:              orderLinkID,
		Symbol:          p.Symbol,
		Side:            p.Side,
		Type:            p.OrderType,
		Quantity:        p.Quantity,
		Price:           price,
		ExchangeOrderID: orderResult.OrderID,
		Status:          submissionStatus(p.OrderType),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// submissionStatus maps an accepted submission to its initial order
// status. Spot market orders execute immediately or the API rejects
// them, so acceptance means filled; GTC limit orders can rest on the
// book and stay submitted.
func submissionStatus(orderType types.OrderType) types.OrderStatus {
	if orderType == types.OrderTypeMarket {
		return types.OrderStatusFilled
	}
	return types.OrderStatusSubmitted
}

// CancelOrder cancels an open order by exchange order id.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
		"orderId":  orderID,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).CancelOrder(ctx)
	if err != nil {
		return err
	}

	var cancelResult struct {
		OrderID string `json:"orderId"`
	}
	return decodeResult(result, &cancelResult)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
