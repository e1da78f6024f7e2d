package position

import (
	"context"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// ExitKind identifies which protective level triggered an exit.
type ExitKind int

const (
	ExitStopLoss ExitKind = iota
	ExitTakeProfit
)

func (k ExitKind) String() string {
	if k == ExitTakeProfit {
		return "take_profit"
	}
	return "stop_loss"
}

// ClosedSlot reports one position the exit monitor closed.
type ClosedSlot struct {
	Symbol string
	Side   types.Side
	Kind   ExitKind
}

// ExitMonitor sweeps open positions against the latest price and closes any
// whose stop-loss or take-profit level has been crossed. Exits are risk
// reduction: they run regardless of drawdown halts or concurrency limits.
type ExitMonitor struct {
	manager *Manager
}

// NewExitMonitor creates a monitor over the manager's ledger.
func NewExitMonitor(m *Manager) *ExitMonitor {
	return &ExitMonitor{manager: m}
}

// CheckExits evaluates every open position slot for the symbol at the given
// price. Stop-loss wins when both levels are somehow crossed in one tick. A
// failed close keeps the position in the ledger so the next tick retries.
func (em *ExitMonitor) CheckExits(ctx context.Context, symbol string, price float64) []ClosedSlot {
	var closed []ClosedSlot
	for _, pos := range em.manager.Ledger().Positions(symbol) {
		var kind ExitKind
		switch {
		case pos.stopLossHit(price):
			kind = ExitStopLoss
		case pos.takeProfitHit(price):
			kind = ExitTakeProfit
		default:
			continue
		}

		reason := ReasonStopLoss
		if kind == ExitTakeProfit {
			reason = ReasonTakeProfit
		}

		if err := em.manager.closePosition(ctx, pos, price, reason); err != nil {
			em.manager.logError("%s: %s exit of %s position failed, will retry next tick: %v",
				symbol, kind, pos.Side, err)
			continue
		}
		closed = append(closed, ClosedSlot{Symbol: pos.Symbol, Side: pos.Side, Kind: kind})
	}
	return closed
}
