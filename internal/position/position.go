// Package position implements the order and position lifecycle: a ledger of
// open positions, a manager that turns strategy signals into exchange orders,
// and an exit monitor that enforces stop-loss and take-profit levels.
package position

import (
	"time"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// Position is one open position slot as the bot believes it exists on the
// exchange. Stop-loss and take-profit levels are enforced locally by the
// exit monitor, not as resting exchange orders.
type Position struct {
	Symbol     string
	Side       types.Side
	Size       float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
	OrderID    string
}

// UnrealizedPnL returns the mark-to-market profit of the position at the
// given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == types.SideLong {
		return (price - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - price) * p.Size
}

// stopLossHit reports whether price has crossed the protective stop.
func (p *Position) stopLossHit(price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Side == types.SideLong {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

// takeProfitHit reports whether price has reached the profit target.
func (p *Position) takeProfitHit(price float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}
	if p.Side == types.SideLong {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}
