package bybit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanlew/algocrypto/internal/exchange"
	"github.com/bryanlew/algocrypto/pkg/types"
)

// orderSide maps a position side to the Bybit order side for an OPENING
// order. Closing orders invert this.
func orderSide(side types.Side) string {
	if side == types.SideLong {
		return "Buy"
	}
	return "Sell"
}

// positionIdx maps a position slot to the Bybit v5 positionIdx field:
// 0 for one-way mode, 1 for the hedge-mode buy side, 2 for the sell side.
func positionIdx(slot exchange.PositionSlot) int {
	switch slot {
	case exchange.SlotLong:
		return 1
	case exchange.SlotShort:
		return 2
	default:
		return 0
	}
}

// PlaceMarketOrder submits a market order opening exposure on the given side.
func (g *Gateway) PlaceMarketOrder(ctx context.Context, symbol string, side types.Side, quantity float64, slot exchange.PositionSlot) (*exchange.OrderResult, error) {
	return g.submitOrder(ctx, symbol, side, orderSide(side), quantity, slot, false)
}

// ClosePosition submits a reduce-only market order on the opposite side of
// the held position. reduceOnly guarantees the order can never flip or grow
// net exposure even if the held size changed underneath us.
func (g *Gateway) ClosePosition(ctx context.Context, symbol string, side types.Side, quantity float64, slot exchange.PositionSlot) (*exchange.OrderResult, error) {
	return g.submitOrder(ctx, symbol, side, orderSide(side.Opposite()), quantity, slot, true)
}

func (g *Gateway) submitOrder(ctx context.Context, symbol string, side types.Side, apiSide string, quantity float64, slot exchange.PositionSlot, reduceOnly bool) (*exchange.OrderResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %f", quantity)
	}

	params := map[string]interface{}{
		"category":    category,
		"symbol":      symbol,
		"side":        apiSide,
		"orderType":   "Market",
		"qty":         formatQty(quantity),
		"positionIdx": positionIdx(slot),
	}
	if reduceOnly {
		params["reduceOnly"] = true
	}

	result, err := g.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}

	if err := decodeResult(result, &orderResult); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	if orderResult.OrderID == "" {
		return nil, fmt.Errorf("exchange returned no order ID for %s %s", apiSide, symbol)
	}

	return &exchange.OrderResult{
		OrderID:  orderResult.OrderID,
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
	}, nil
}

// SetLeverage configures leverage for a symbol. Bybit rejects the call with
// retCode 110043 when the leverage is already set to the requested value;
// that is treated as success.
func (g *Gateway) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %d", leverage)
	}

	lev := strconv.Itoa(leverage)
	params := map[string]interface{}{
		"category":     category,
		"symbol":       symbol,
		"buyLeverage":  lev,
		"sellLeverage": lev,
	}

	result, err := g.httpClient.NewUtaBybitServiceWithParams(params).SetPositionLeverage(ctx)
	if err != nil {
		return fmt.Errorf("failed to set leverage: %w", err)
	}

	var ignored struct{}
	if err := decodeResult(result, &ignored); err != nil {
		if isLeverageNotModified(err) {
			return nil
		}
		return fmt.Errorf("failed to set leverage for %s: %w", symbol, err)
	}

	return nil
}

// 110043: leverage not modified.
func isLeverageNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "110043")
}
