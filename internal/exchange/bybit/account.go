package bybit

import (
	"context"
	"fmt"
)

// GetPortfolioValue returns the total equity of the Unified Trading Account.
// Equity includes unrealized P&L and posted margin, which is what the
// drawdown guard must see; the free wallet balance would understate losses
// on open positions.
func (g *Gateway) GetPortfolioValue(ctx context.Context) (float64, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
	}

	result, err := g.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get account balance: %w", err)
	}

	var walletResult struct {
		List []struct {
			AccountType string `json:"accountType"`
			TotalEquity string `json:"totalEquity"`
		} `json:"list"`
	}

	if err := decodeResult(result, &walletResult); err != nil {
		return 0, fmt.Errorf("failed to parse account balance response: %w", err)
	}

	if len(walletResult.List) == 0 {
		return 0, fmt.Errorf("no wallet data found")
	}

	return parseFloat64(walletResult.List[0].TotalEquity), nil
}
