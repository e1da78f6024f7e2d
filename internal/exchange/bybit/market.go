package bybit

import (
	"context"
	"fmt"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// GetKlines fetches up to limit recent candles for a symbol. Bybit returns
// klines newest-first; the result is reversed into chronological order.
func (g *Gateway) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
		"interval": interval,
		"limit":    limit,
	}

	result, err := g.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}

	if err := decodeResult(result, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to parse kline response: %w", err)
	}

	// Bybit kline format: [startTime, open, high, low, close, volume, turnover]
	candles := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		item := klineResult.List[i]
		if len(item) < 6 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: parseTimestamp(item[0]),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}

	return candles, nil
}

// GetCurrentPrice returns the last traded price for a symbol.
func (g *Gateway) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := g.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest price: %w", err)
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}

	if err := decodeResult(result, &tickerResult); err != nil {
		return 0, fmt.Errorf("failed to parse ticker response: %w", err)
	}

	if len(tickerResult.List) == 0 {
		return 0, fmt.Errorf("no ticker data found for %s", symbol)
	}

	price := parseFloat64(tickerResult.List[0].LastPrice)
	if price <= 0 {
		return 0, fmt.Errorf("invalid last price for %s", symbol)
	}

	return price, nil
}
