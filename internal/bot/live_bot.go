// Package bot wires the exchange gateway, strategies, and the position
// lifecycle into the live trading loop.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bryanlew/algocrypto/internal/config"
	"github.com/bryanlew/algocrypto/internal/exchange"
	"github.com/bryanlew/algocrypto/internal/logger"
	"github.com/bryanlew/algocrypto/internal/monitoring"
	"github.com/bryanlew/algocrypto/internal/notifications"
	"github.com/bryanlew/algocrypto/internal/position"
	"github.com/bryanlew/algocrypto/internal/risk"
	"github.com/bryanlew/algocrypto/internal/strategy"
	"github.com/bryanlew/algocrypto/pkg/reporting"
)

// evaluation window for strategy selection and live signals.
const klineWindow = 200

// LiveBot runs the polling trading loop: exits first, then one signal per
// symbol per tick.
type LiveBot struct {
	gateway  exchange.Gateway
	watcher  *config.Watcher
	manager  *position.Manager
	exits    *position.ExitMonitor
	guard    *risk.DrawdownGuard
	logger   *logger.Logger
	notifier *notifications.TelegramNotifier
	health   *monitoring.HealthChecker

	environment   string
	checkInterval time.Duration

	// Per-symbol signal sources, chosen at startup.
	strategies map[string]strategy.SignalSource

	mu          sync.Mutex
	trades      []position.ClosedTrade
	lastPrices  map[string]float64
	latestPrice float64
	running     bool
	wasHalted   bool

	stopChan chan struct{}
}

// Options carries the optional collaborators of the bot.
type Options struct {
	Notifier      *notifications.TelegramNotifier
	Health        *monitoring.HealthChecker
	CheckInterval time.Duration
	Environment   string
}

// NewLiveBot assembles the bot from an already connected gateway and loaded
// configuration.
func NewLiveBot(gateway exchange.Gateway, watcher *config.Watcher, log *logger.Logger, opts Options) *LiveBot {
	tc := watcher.Current()

	guard := risk.NewDrawdownGuard(tc.Capital, tc.DrawdownLimit)
	sizer := risk.NewSizer(tc.Capital, tc.RiskFraction, tc.Assets)
	ledger := position.NewLedger(tc.Mode())
	manager := position.NewManager(gateway, sizer, guard, ledger, managerParams(tc), log)

	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	if opts.Health == nil {
		opts.Health = monitoring.NewHealthChecker()
	}

	b := &LiveBot{
		gateway:       gateway,
		watcher:       watcher,
		manager:       manager,
		exits:         position.NewExitMonitor(manager),
		guard:         guard,
		logger:        log,
		notifier:      opts.Notifier,
		health:        opts.Health,
		environment:   opts.Environment,
		checkInterval: opts.CheckInterval,
		strategies:    make(map[string]strategy.SignalSource),
		lastPrices:    make(map[string]float64),
		stopChan:      make(chan struct{}),
	}

	manager.SetCloseHook(b.recordClose)
	return b
}

func managerParams(tc config.TradingConfig) position.Params {
	return position.Params{
		Mode:                tc.Mode(),
		MaxConcurrentTrades: tc.MaxConcurrentTrades,
		StopLossFraction:    tc.StopLossFraction,
		TakeProfitFraction:  tc.TakeProfitFraction,
		FixedQuantity:       tc.FixedQuantity,
	}
}

// Start prepares leverage and strategies, then runs the trading loop until
// ctx is cancelled or Stop is called.
func (b *LiveBot) Start(ctx context.Context) error {
	tc := b.watcher.Current()

	reporting.PrintStartupInfo(b.environment, tc.Interval, tc.Mode().String(), tc.Assets)
	b.logger.Info("Bot starting: env=%s mode=%s assets=%v strategy=%s",
		b.environment, tc.Mode(), tc.Assets, tc.Strategy)

	for _, symbol := range tc.Assets {
		if err := b.gateway.SetLeverage(ctx, symbol, tc.LeverageFor(symbol)); err != nil {
			b.logger.Warning("%s: could not set leverage to %dx: %v",
				symbol, tc.LeverageFor(symbol), err)
		}
	}

	if err := b.selectStrategies(ctx, tc); err != nil {
		return fmt.Errorf("strategy selection failed: %w", err)
	}

	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	b.tradingLoop(ctx)
	return nil
}

// Stop signals the trading loop to exit. Safe to call more than once.
func (b *LiveBot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		b.running = false
		close(b.stopChan)
	}
}

// Trades returns a copy of the session's closed trades.
func (b *LiveBot) Trades() []position.ClosedTrade {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]position.ClosedTrade, len(b.trades))
	copy(out, b.trades)
	return out
}

// selectStrategies resolves the signal source per symbol. "auto" backtests
// the candidates over recent candles and takes the best Sharpe ratio.
func (b *LiveBot) selectStrategies(ctx context.Context, tc config.TradingConfig) error {
	for _, symbol := range tc.Assets {
		if tc.Strategy != "auto" {
			b.strategies[symbol] = newStrategy(tc.Strategy)
			continue
		}

		klines, err := b.gateway.GetKlines(ctx, symbol, tc.Interval, klineWindow)
		if err != nil {
			return fmt.Errorf("%s: could not fetch candles: %w", symbol, err)
		}

		ev := strategy.NewEvaluator(candidateStrategies()...)
		results, err := ev.Evaluate(klines)
		if err != nil {
			return fmt.Errorf("%s: %w", symbol, err)
		}
		reporting.PrintStrategyRanking(symbol, results)

		best, perf, err := ev.Best(klines)
		if err != nil {
			return err
		}
		b.strategies[symbol] = best
		b.logger.Info("%s: selected strategy %s (sharpe %.2f, roi %.2f%%)",
			symbol, best.Name(), perf.SharpeRatio, perf.ROI*100)
	}
	return nil
}

func candidateStrategies() []strategy.SignalSource {
	return []strategy.SignalSource{
		strategy.NewBollingerBreakout(20, 2.0),
		strategy.NewMACross(10, 30),
		strategy.NewRSIReversal(14, 30, 70),
	}
}

func newStrategy(name string) strategy.SignalSource {
	switch name {
	case "bollinger":
		return strategy.NewBollingerBreakout(20, 2.0)
	case "ma_cross":
		return strategy.NewMACross(10, 30)
	default:
		return strategy.NewRSIReversal(14, 30, 70)
	}
}

func (b *LiveBot) tradingLoop(ctx context.Context) {
	b.logger.Info("Trading loop started, checking every %s", b.checkInterval)

	b.checkAndTrade(ctx)

	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled - ending trading loop")
			return
		case <-b.stopChan:
			b.logger.Info("Stop signal received - ending trading loop")
			return
		case <-ticker.C:
			b.checkAndTrade(ctx)
		}
	}
}

// checkAndTrade performs one full tick: config refresh, account sync,
// protective exits, then signal evaluation per symbol.
func (b *LiveBot) checkAndTrade(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Error in trading loop: %v", r)
			monitoring.RecordError("panic")
		}
	}()

	tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tc := b.watcher.Current()
	b.manager.UpdateParams(managerParams(tc))
	b.manager.UpdateSizer(risk.NewSizer(tc.Capital, tc.RiskFraction, tc.Assets))

	equity, err := b.gateway.GetPortfolioValue(tickCtx)
	connected := err == nil
	if err != nil {
		b.logger.Warning("Could not refresh portfolio value: %v", err)
		monitoring.RecordError("portfolio_value")
		equity = 0
	}

	halted := false
	if equity > 0 {
		halted = b.guard.Check(equity)
		monitoring.UpdatePortfolio(equity, b.guard.Drawdown(equity))
		b.notifyHaltTransition(halted, equity, tc.DrawdownLimit)
	}

	if !tc.Enabled {
		b.logger.Status("Trading disabled in config, monitoring only")
	}

	for _, symbol := range tc.Assets {
		b.processSymbol(tickCtx, symbol, tc, equity, tc.Enabled)
	}

	monitoring.UpdateOpenSlots(b.manager.Ledger().OpenSlots())
	b.health.RecordTick(b.lastPrice(), connected, halted)
}

func (b *LiveBot) processSymbol(ctx context.Context, symbol string, tc config.TradingConfig, equity float64, enabled bool) {
	price, err := b.gateway.GetCurrentPrice(ctx, symbol)
	if err != nil {
		b.logger.Error("%s: failed to get current price: %v", symbol, err)
		monitoring.RecordError("price_fetch")
		return
	}
	monitoring.UpdatePrice(symbol, price)
	b.mu.Lock()
	b.lastPrices[symbol] = price
	b.latestPrice = price
	b.mu.Unlock()

	// Protective exits run before new signals so a stop-out frees its slot
	// within the same tick.
	for _, slot := range b.exits.CheckExits(ctx, symbol, price) {
		monitoring.RecordExit(slot.Symbol, slot.Kind.String())
		b.logger.Trade("%s: %s exit on %s side", slot.Symbol, slot.Kind, slot.Side)
	}

	if !enabled {
		return
	}

	src, ok := b.strategies[symbol]
	if !ok {
		return
	}

	klines, err := b.gateway.GetKlines(ctx, symbol, tc.Interval, klineWindow)
	if err != nil {
		b.logger.Error("%s: failed to get klines: %v", symbol, err)
		monitoring.RecordError("kline_fetch")
		return
	}

	signal, err := strategy.LatestSignal(src, klines)
	if err != nil {
		b.logger.Error("%s: strategy %s failed: %v", symbol, src.Name(), err)
		monitoring.RecordError("strategy")
		return
	}

	report := b.manager.OnSignal(ctx, symbol, signal, price, equity)
	switch report.Action {
	case position.ActionOpened, position.ActionReversed:
		pos := report.Position
		monitoring.RecordTrade(pos.Symbol, pos.Side.String())
		b.logger.Trade("%s: %s %s %.6f @ %.4f (strategy %s)",
			pos.Symbol, report.Action, pos.Side, pos.Size, pos.EntryPrice, src.Name())
		if b.notifier != nil {
			if err := b.notifier.NotifyTradeOpened(pos.Symbol, pos.Side.String(), pos.Size, pos.EntryPrice); err != nil {
				b.logger.Warning("Telegram notification failed: %v", err)
			}
		}
	case position.ActionRefused:
		monitoring.RecordRefusal(report.Reason)
	}
}

// recordClose is the manager's close hook: journal, metrics, alert.
func (b *LiveBot) recordClose(trade position.ClosedTrade) {
	b.mu.Lock()
	b.trades = append(b.trades, trade)
	b.mu.Unlock()

	monitoring.RecordRealizedPnL(trade.Symbol, trade.PnL)
	if b.notifier != nil {
		if err := b.notifier.NotifyTradeClosed(trade.Symbol, trade.Side.String(), trade.Reason, trade.PnL); err != nil {
			b.logger.Warning("Telegram notification failed: %v", err)
		}
	}
}

// notifyHaltTransition alerts once per kill-switch engagement.
func (b *LiveBot) notifyHaltTransition(halted bool, equity, limit float64) {
	b.mu.Lock()
	transition := halted && !b.wasHalted
	recovered := !halted && b.wasHalted
	b.wasHalted = halted
	b.mu.Unlock()

	if transition {
		dd := b.guard.Drawdown(equity)
		b.logger.Error("DRAWDOWN KILL SWITCH: %.2f%% from peak %.2f, refusing new entries", dd*100, b.guard.Peak())
		if b.notifier != nil {
			if err := b.notifier.NotifyDrawdownHalt(dd, limit); err != nil {
				b.logger.Warning("Telegram notification failed: %v", err)
			}
		}
	}
	if recovered {
		b.logger.Info("Drawdown recovered below limit, trading resumed")
	}
}

// lastPrice returns the most recently fetched price across all symbols.
func (b *LiveBot) lastPrice() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latestPrice
}

// PrintStatus renders the open positions table.
func (b *LiveBot) PrintStatus() {
	b.mu.Lock()
	prices := make(map[string]float64, len(b.lastPrices))
	for k, v := range b.lastPrices {
		prices[k] = v
	}
	b.mu.Unlock()

	reporting.PrintOpenPositions(b.manager.Ledger().All(), prices)
}

// CloseAllPositions flattens every open position, typically on shutdown.
func (b *LiveBot) CloseAllPositions(ctx context.Context) int {
	closed := b.manager.CloseAll(ctx)
	if closed > 0 {
		b.logger.Info("Closed %d open position(s)", closed)
	}
	return closed
}

// Shutdown prints the session summary and writes the trade journal.
func (b *LiveBot) Shutdown(journalPath string) error {
	trades := b.Trades()
	reporting.PrintSessionSummary(trades)

	if journalPath == "" || len(trades) == 0 {
		return nil
	}
	if err := reporting.NewExcelJournal().WriteTrades(trades, journalPath); err != nil {
		return fmt.Errorf("failed to write trade journal: %w", err)
	}
	b.logger.Info("Trade journal written to %s", journalPath)
	return nil
}

// Manager exposes the lifecycle manager for callers that drive the bot
// manually.
func (b *LiveBot) Manager() *position.Manager { return b.manager }
