package exchange

import (
	"strings"
	"sync"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

// quoteCurrencies is the fixed list of known quote currencies used when
// splitting a compact symbol like BTCUSDT. Order matters: longer, more
// common quotes first so USDT wins over USD.
var quoteCurrencies = []string{"USDT", "USDC", "USD", "BTC", "ETH", "BNB", "EUR", "GBP"}

// Catalog is the market catalog loaded from the exchange at connect
// time. All keys are the canonical BASE/QUOTE form.
type Catalog struct {
	mu       sync.RWMutex
	bySymbol map[string]types.Instrument
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bySymbol: make(map[string]types.Instrument)}
}

// Replace swaps the full instrument set, keyed by canonical symbol.
func (c *Catalog) Replace(instruments []types.Instrument) {
	next := make(map[string]types.Instrument, len(instruments))
	for _, in := range instruments {
		next[in.Symbol] = in
	}
	c.mu.Lock()
	c.bySymbol = next
	c.mu.Unlock()
}

// Get looks up an instrument by canonical symbol.
func (c *Catalog) Get(symbol string) (types.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.bySymbol[symbol]
	return in, ok
}

// Len returns the catalog size.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bySymbol)
}

// Normalize converts an accepted symbol form to the canonical BASE/QUOTE
// representation. A direct catalog match wins; otherwise the symbol is
// split by each known quote currency and re-checked. Unresolvable
// symbols pass through unchanged so the exchange raises a proper
// symbol-not-found instead of the adapter guessing. Normalization is
// idempotent.
func (c *Catalog) Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	if _, ok := c.Get(s); ok {
		return s
	}

	if !strings.Contains(s, "/") {
		for _, quote := range quoteCurrencies {
			if !strings.HasSuffix(s, quote) || len(s) <= len(quote) {
				continue
			}
			candidate := s[:len(s)-len(quote)] + "/" + quote
			if _, ok := c.Get(candidate); ok {
				return candidate
			}
		}
	}

	return symbol
}

// CompactSymbol strips the separator from a canonical symbol, producing
// the provider wire form (BTC/USDT -> BTCUSDT).
func CompactSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// SplitSymbol returns the base and quote of a canonical symbol. The
// second return is empty when the symbol is not canonical.
func SplitSymbol(symbol string) (base, quote string) {
	parts := strings.SplitN(symbol, "/", 2)
	if len(parts) != 2 {
		return symbol, ""
	}
	return parts[0], parts[1]
}
