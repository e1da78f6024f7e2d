package bybit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bryanlew/algocrypto/internal/exchange"
)

// constraintCache caches per-symbol lot size rules so the trading loop does
// not hit the instruments-info endpoint on every order.
type constraintCache struct {
	mu      sync.RWMutex
	entries map[string]constraintEntry
	ttl     time.Duration
}

type constraintEntry struct {
	constraints exchange.InstrumentConstraints
	fetchedAt   time.Time
}

func newConstraintCache() *constraintCache {
	return &constraintCache{
		entries: make(map[string]constraintEntry),
		ttl:     1 * time.Hour,
	}
}

func (cc *constraintCache) get(symbol string) (exchange.InstrumentConstraints, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	entry, ok := cc.entries[symbol]
	if !ok || time.Since(entry.fetchedAt) > cc.ttl {
		return exchange.InstrumentConstraints{}, false
	}
	return entry.constraints, true
}

func (cc *constraintCache) put(symbol string, c exchange.InstrumentConstraints) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.entries[symbol] = constraintEntry{constraints: c, fetchedAt: time.Now()}
}

// GetInstrumentConstraints returns the quantity step and minimum order
// quantity for a symbol, fetching from the instruments-info endpoint on a
// cache miss.
func (g *Gateway) GetInstrumentConstraints(ctx context.Context, symbol string) (exchange.InstrumentConstraints, error) {
	if c, ok := g.constraints.get(symbol); ok {
		return c, nil
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := g.httpClient.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
	if err != nil {
		return exchange.InstrumentConstraints{}, fmt.Errorf("failed to fetch instrument info: %w", err)
	}

	var instrumentResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol        string `json:"symbol"`
			LotSizeFilter struct {
				MinOrderQty string `json:"minOrderQty"`
				QtyStep     string `json:"qtyStep"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}

	if err := decodeResult(result, &instrumentResult); err != nil {
		return exchange.InstrumentConstraints{}, fmt.Errorf("failed to parse instrument info: %w", err)
	}

	for _, item := range instrumentResult.List {
		if item.Symbol != symbol {
			continue
		}
		c := exchange.InstrumentConstraints{
			QuantityStep:    parseFloat64(item.LotSizeFilter.QtyStep),
			MinimumQuantity: parseFloat64(item.LotSizeFilter.MinOrderQty),
		}
		g.constraints.put(symbol, c)
		return c, nil
	}

	return exchange.InstrumentConstraints{}, fmt.Errorf("instrument %s not found", symbol)
}
