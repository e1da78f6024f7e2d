package position

import (
	"context"
	"time"

	"github.com/bryanlew/algocrypto/internal/exchange"
	"github.com/bryanlew/algocrypto/internal/risk"
	"github.com/bryanlew/algocrypto/pkg/types"
)

// Logger is the logging surface the lifecycle manager needs. A nil logger
// disables logging.
type Logger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Action describes what the manager did in response to a signal.
type Action int

const (
	ActionNone Action = iota
	ActionOpened
	ActionClosed
	ActionReversed
	ActionRefused
)

func (a Action) String() string {
	switch a {
	case ActionOpened:
		return "opened"
	case ActionClosed:
		return "closed"
	case ActionReversed:
		return "reversed"
	case ActionRefused:
		return "refused"
	default:
		return "none"
	}
}

// Refusal and close reasons reported in ActionReport and ClosedTrade.
const (
	ReasonDrawdownHalt        = "drawdown_halt"
	ReasonAlreadyInPosition   = "already_in_position"
	ReasonMaxConcurrentTrades = "max_concurrent_trades"
	ReasonSizingDenied        = "sizing_denied"
	ReasonOrderFailed         = "order_failed"
	ReasonReversalCloseFailed = "reversal_close_failed"
	ReasonNoPosition          = "no_position"

	ReasonSignalFlat  = "signal_flat"
	ReasonReversal    = "reversal"
	ReasonStopLoss    = "stop_loss"
	ReasonTakeProfit  = "take_profit"
	ReasonCloseAll    = "close_all"
	ReasonManualClose = "manual_close"
)

// ActionReport is the outcome of handling one signal.
type ActionReport struct {
	Action   Action
	Reason   string
	Position *Position // set when a position was opened
}

func refused(reason string) ActionReport {
	return ActionReport{Action: ActionRefused, Reason: reason}
}

// ClosedTrade is the completed-trade record handed to the close hook for
// journaling and metrics.
type ClosedTrade struct {
	Symbol     string
	Side       types.Side
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	Reason     string
	ClosedAt   time.Time
}

// Params are the trading parameters of the lifecycle manager.
type Params struct {
	Mode                types.PositionMode
	MaxConcurrentTrades int
	StopLossFraction    float64 // stop distance from entry, e.g. 0.02
	TakeProfitFraction  float64 // target distance from entry, e.g. 0.04
	FixedQuantity       float64 // overrides risk-based sizing when > 0
}

// Manager owns the position lifecycle. It is the only component that places
// orders, and the ledger is updated only after the exchange confirms, so a
// ledger entry always corresponds to a filled order.
type Manager struct {
	gateway exchange.Gateway
	sizer   *risk.Sizer
	guard   *risk.DrawdownGuard
	ledger  *Ledger
	params  Params
	log     Logger

	onClose func(ClosedTrade)
}

// NewManager wires a lifecycle manager. The ledger's mode must match
// params.Mode; the manager trusts the ledger it is given.
func NewManager(gateway exchange.Gateway, sizer *risk.Sizer, guard *risk.DrawdownGuard, ledger *Ledger, params Params, log Logger) *Manager {
	return &Manager{
		gateway: gateway,
		sizer:   sizer,
		guard:   guard,
		ledger:  ledger,
		params:  params,
		log:     log,
	}
}

// SetCloseHook registers a callback invoked after every confirmed close.
func (m *Manager) SetCloseHook(fn func(ClosedTrade)) {
	m.onClose = fn
}

// UpdateParams applies reloaded trading parameters. A position mode change
// migrates the ledger to the new shape; a hedged short that survives on the
// exchange but loses its slot is logged so it can be closed by hand. Must be
// called from the goroutine driving OnSignal.
func (m *Manager) UpdateParams(p Params) {
	if p.Mode != m.params.Mode {
		dropped := m.ledger.ConvertMode(p.Mode)
		m.logWarning("position mode changed %s -> %s, ledger migrated", m.params.Mode, p.Mode)
		for _, pos := range dropped {
			m.logWarning("%s: %s position of %.6f is no longer tracked after the mode change, close it on the exchange",
				pos.Symbol, pos.Side, pos.Size)
		}
	}
	m.params = p
}

// UpdateSizer swaps the sizer after a capital or allow-list change. Must be
// called from the goroutine driving OnSignal.
func (m *Manager) UpdateSizer(s *risk.Sizer) {
	m.sizer = s
}

// Ledger exposes the manager's ledger for read-only inspection.
func (m *Manager) Ledger() *Ledger {
	return m.ledger
}

// OnSignal reconciles one strategy signal against the current position state.
// portfolioValue feeds the drawdown guard; pass 0 to skip the guard update
// when the value could not be fetched this tick.
func (m *Manager) OnSignal(ctx context.Context, symbol string, signal types.Signal, price, portfolioValue float64) ActionReport {
	halted := false
	if portfolioValue > 0 {
		halted = m.guard.Check(portfolioValue)
	}

	// A flat signal closes out the symbol. Closing is always allowed, even
	// under a drawdown halt: the kill switch stops risk from growing, it
	// must not trap existing exposure.
	side, directional := signal.Side()
	if !directional {
		return m.closeSymbol(ctx, symbol, price)
	}

	if halted {
		m.logWarning("%s: refusing %s entry, drawdown halt active (%.2f%% from peak)",
			symbol, side, m.guard.Drawdown(portfolioValue)*100)
		return refused(ReasonDrawdownHalt)
	}

	if _, held := m.ledger.Get(symbol, side); held {
		return refused(ReasonAlreadyInPosition)
	}

	reversed := false
	if m.params.Mode == types.ModeOneWay {
		if existing, held := m.ledger.Net(symbol); held {
			// Opposite side held: reverse by closing first. The ledger entry
			// is cleared regardless of the close outcome so a failed close
			// leaves the bot flat rather than tracking a position it no
			// longer knows the true size of.
			if err := m.closeOnExchange(ctx, existing, price, ReasonReversal); err != nil {
				m.ledger.remove(existing.Symbol, existing.Side)
				m.logError("%s: reversal close failed, standing down flat: %v", symbol, err)
				return refused(ReasonReversalCloseFailed)
			}
			m.removeAndReport(existing, price, ReasonReversal)
			reversed = true
		}
	}

	if m.params.MaxConcurrentTrades > 0 && m.ledger.OpenSlots() >= m.params.MaxConcurrentTrades {
		return refused(ReasonMaxConcurrentTrades)
	}

	report := m.openPosition(ctx, symbol, side, price)
	if reversed && report.Action == ActionOpened {
		report.Action = ActionReversed
	}
	return report
}

// openPosition sizes, rounds, and submits a market order, recording the
// position only on exchange confirmation.
func (m *Manager) openPosition(ctx context.Context, symbol string, side types.Side, price float64) ActionReport {
	stop := protectiveStop(side, price, m.params.StopLossFraction)

	qty := m.params.FixedQuantity
	if qty <= 0 {
		sized, err := m.sizer.Size(symbol, price, stop)
		if err != nil {
			m.logWarning("%s: sizing denied: %v", symbol, err)
			return refused(ReasonSizingDenied)
		}
		qty = sized
	}

	if constraints, err := m.gateway.GetInstrumentConstraints(ctx, symbol); err != nil {
		m.logWarning("%s: instrument constraints unavailable, sending unrounded quantity: %v", symbol, err)
	} else {
		qty = exchange.RoundQuantity(qty, constraints)
	}

	slot := exchange.SlotFor(m.params.Mode, side)
	result, err := m.gateway.PlaceMarketOrder(ctx, symbol, side, qty, slot)
	if err != nil {
		m.logError("%s: %s order for %.6f failed: %v", symbol, side, qty, err)
		return refused(ReasonOrderFailed)
	}

	pos := Position{
		Symbol:     symbol,
		Side:       side,
		Size:       qty,
		EntryPrice: price,
		StopLoss:   stop,
		TakeProfit: profitTarget(side, price, m.params.TakeProfitFraction),
		OpenedAt:   time.Now(),
		OrderID:    result.OrderID,
	}
	if err := m.ledger.open(pos); err != nil {
		// The order filled but the slot was taken. This indicates a caller
		// bug; surface it loudly rather than silently dropping the fill.
		m.logError("%s: order %s filled but ledger rejected it: %v", symbol, result.OrderID, err)
		return refused(ReasonAlreadyInPosition)
	}

	m.logInfo("%s: opened %s %.6f @ %.4f (SL %.4f, TP %.4f, order %s)",
		symbol, side, qty, price, pos.StopLoss, pos.TakeProfit, result.OrderID)
	return ActionReport{Action: ActionOpened, Position: &pos}
}

// ClosePosition closes the open position on the given symbol and side with a
// reduce-only order. The ledger entry is cleared only after the exchange
// confirms. Returns false when no such position is held or the close order
// failed; a failed close keeps the entry so it can be retried.
func (m *Manager) ClosePosition(ctx context.Context, symbol string, side types.Side) bool {
	pos, ok := m.ledger.Get(symbol, side)
	if !ok {
		return false
	}

	price, err := m.gateway.GetCurrentPrice(ctx, symbol)
	if err != nil || price <= 0 {
		// Record against entry when no price is available.
		price = pos.EntryPrice
	}

	if err := m.closePosition(ctx, pos, price, ReasonManualClose); err != nil {
		m.logError("%s: close of %s position failed: %v", symbol, side, err)
		return false
	}
	return true
}

// closeSymbol closes every open position slot for a symbol.
func (m *Manager) closeSymbol(ctx context.Context, symbol string, price float64) ActionReport {
	positions := m.ledger.Positions(symbol)
	if len(positions) == 0 {
		return ActionReport{Action: ActionNone, Reason: ReasonNoPosition}
	}

	closed := 0
	for _, pos := range positions {
		if err := m.closePosition(ctx, pos, price, ReasonSignalFlat); err != nil {
			m.logError("%s: close of %s position failed, will retry next tick: %v", symbol, pos.Side, err)
			continue
		}
		closed++
	}

	if closed == 0 {
		return refused(ReasonOrderFailed)
	}
	return ActionReport{Action: ActionClosed, Reason: ReasonSignalFlat}
}

// CloseAll flattens every open position across all symbols, fetching the
// latest price per symbol for the trade records. Returns the number of
// positions confirmed closed; failed closes stay in the ledger.
func (m *Manager) CloseAll(ctx context.Context) int {
	closed := 0
	for _, pos := range m.ledger.All() {
		price, err := m.gateway.GetCurrentPrice(ctx, pos.Symbol)
		if err != nil || price <= 0 {
			price = pos.EntryPrice
		}
		if err := m.closePosition(ctx, pos, price, ReasonCloseAll); err != nil {
			m.logError("%s: close-all failed for %s position: %v", pos.Symbol, pos.Side, err)
			continue
		}
		closed++
	}
	return closed
}

// closePosition is the single closing path: reduce-only order first, ledger
// removal and close hook only on confirmation.
func (m *Manager) closePosition(ctx context.Context, pos Position, price float64, reason string) error {
	if err := m.closeOnExchange(ctx, pos, price, reason); err != nil {
		return err
	}
	m.removeAndReport(pos, price, reason)
	return nil
}

func (m *Manager) closeOnExchange(ctx context.Context, pos Position, price float64, reason string) error {
	slot := exchange.SlotFor(m.params.Mode, pos.Side)
	_, err := m.gateway.ClosePosition(ctx, pos.Symbol, pos.Side, pos.Size, slot)
	if err != nil {
		return err
	}
	m.logInfo("%s: closed %s %.6f @ %.4f (%s, PnL %.4f)",
		pos.Symbol, pos.Side, pos.Size, price, reason, pos.UnrealizedPnL(price))
	return nil
}

// removeAndReport clears the ledger slot and notifies the close hook.
func (m *Manager) removeAndReport(pos Position, price float64, reason string) {
	m.ledger.remove(pos.Symbol, pos.Side)
	if m.onClose != nil {
		m.onClose(ClosedTrade{
			Symbol:     pos.Symbol,
			Side:       pos.Side,
			Size:       pos.Size,
			EntryPrice: pos.EntryPrice,
			ExitPrice:  price,
			PnL:        pos.UnrealizedPnL(price),
			Reason:     reason,
			ClosedAt:   time.Now(),
		})
	}
}

func protectiveStop(side types.Side, entry, fraction float64) float64 {
	if fraction <= 0 {
		return 0
	}
	if side == types.SideLong {
		return entry * (1 - fraction)
	}
	return entry * (1 + fraction)
}

func profitTarget(side types.Side, entry, fraction float64) float64 {
	if fraction <= 0 {
		return 0
	}
	if side == types.SideLong {
		return entry * (1 + fraction)
	}
	return entry * (1 - fraction)
}

func (m *Manager) logInfo(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Info(format, args...)
	}
}

func (m *Manager) logWarning(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Warning(format, args...)
	}
}

func (m *Manager) logError(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Error(format, args...)
	}
}
