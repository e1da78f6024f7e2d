package exchange

import (
	"context"
	"math"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// PositionSlot identifies which exchange position slot an order targets.
// One-way mode uses the single slot; hedge mode addresses the long and short
// slots independently. The exchange-specific index (Bybit positionIdx 0/1/2)
// is derived from this at the gateway boundary.
type PositionSlot int

const (
	SlotOneWay PositionSlot = iota
	SlotLong
	SlotShort
)

func (s PositionSlot) String() string {
	switch s {
	case SlotLong:
		return "long"
	case SlotShort:
		return "short"
	default:
		return "one-way"
	}
}

// SlotFor returns the slot an order for the given side must target under the
// given position mode.
func SlotFor(mode types.PositionMode, side types.Side) PositionSlot {
	if mode == types.ModeOneWay {
		return SlotOneWay
	}
	if side == types.SideLong {
		return SlotLong
	}
	return SlotShort
}

// OrderResult is the acknowledgment returned for a successfully placed order.
type OrderResult struct {
	OrderID  string
	Symbol   string
	Side     types.Side
	Quantity float64
}

// InstrumentConstraints holds the exchange's quantity granularity rules for
// an instrument.
type InstrumentConstraints struct {
	QuantityStep    float64
	MinimumQuantity float64
}

// Gateway is the exchange connectivity contract consumed by the position
// lifecycle manager. Implementations perform blocking I/O; callers decide
// retry policy. A nil error means the exchange confirmed the operation.
type Gateway interface {
	// PlaceMarketOrder opens exposure on the given side.
	PlaceMarketOrder(ctx context.Context, symbol string, side types.Side, quantity float64, slot PositionSlot) (*OrderResult, error)

	// ClosePosition reduces the position held on the given side to zero using
	// a reduce-only market order. It must never increase net exposure.
	ClosePosition(ctx context.Context, symbol string, side types.Side, quantity float64, slot PositionSlot) (*OrderResult, error)

	// GetCurrentPrice returns the last traded price for the symbol.
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)

	// GetPortfolioValue returns account equity including unrealized P&L and
	// margin, not the raw wallet balance.
	GetPortfolioValue(ctx context.Context) (float64, error)

	// GetInstrumentConstraints returns quantity step and minimum for a symbol.
	GetInstrumentConstraints(ctx context.Context, symbol string) (InstrumentConstraints, error)

	// GetKlines returns up to limit recent candles for the symbol.
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error)

	// SetLeverage configures leverage for a symbol before trading it.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}

// RoundQuantity adjusts a computed quantity to an exchange-valid granularity:
// round to the nearest step, then floor up to the minimum. A quantity is never
// silently dropped below the minimum.
func RoundQuantity(qty float64, c InstrumentConstraints) float64 {
	if c.QuantityStep > 0 {
		qty = math.Round(qty/c.QuantityStep) * c.QuantityStep
		// Clean up float residue at the step's precision.
		precision := int(math.Ceil(-math.Log10(c.QuantityStep)))
		if precision > 0 && precision <= 8 {
			scale := math.Pow(10, float64(precision))
			qty = math.Round(qty*scale) / scale
		}
	}
	if qty < c.MinimumQuantity {
		qty = c.MinimumQuantity
	}
	return qty
}
