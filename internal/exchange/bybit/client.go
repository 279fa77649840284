package bybit

import (
	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// category is the Bybit product category this bot trades. Spot only.
const category = "spot"

// Config holds the credentials and environment selection for the Bybit
// client.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool // demo trading environment (paper trading)
}

// Client wraps the official Bybit API client.
type Client struct {
	httpClient *bybit_api.Client
	testnet    bool
	demo       bool
}

// NewClient creates a new Bybit client for the configured environment.
func NewClient(cfg Config) *Client {
	var baseURL string
	switch {
	case cfg.Demo:
		baseURL = "https://api-demo.bybit.com"
	case cfg.Testnet:
		baseURL = bybit_api.TESTNET
	default:
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		cfg.APIKey,
		cfg.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &Client{
		httpClient: httpClient,
		testnet:    cfg.Testnet,
		demo:       cfg.Demo,
	}
}

// Environment returns a string describing the configured environment.
func (c *Client) Environment() string {
	switch {
	case c.demo:
		return "demo"
	case c.testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}
