package bybit

import (
	"context"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// GetBalances fetches all non-zero coin balances from the unified
// account. Always a fresh API call, never cached.
func (c *Client) GetBalances(ctx context.Context) (map[string]types.Balance, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return nil, err
	}

	var walletResult struct {
		List []struct {
			AccountType string `json:"accountType"`
			Coin        []struct {
				Coin             string `json:"coin"`
				WalletBalance    string `json:"walletBalance"`
				AvailableToTrade string `json:"availableToTrade"`
				Locked           string `json:"locked"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := decodeResult(result, &walletResult); err != nil {
		return nil, err
	}

	balances := make(map[string]types.Balance)
	for _, account := range walletResult.List {
		for _, coin := range account.Coin {
			total := parseFloat64(coin.WalletBalance)
			if total == 0 {
				continue
			}
			free := parseFloat64(coin.AvailableToTrade)
			locked := parseFloat64(coin.Locked)
			if free == 0 && locked == 0 {
				free = total
			}
			balances[coin.Coin] = types.Balance{
				Asset:  coin.Coin,
				Free:   free,
				Locked: locked,
			}
		}
	}

	return balances, nil
}
