package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanlew/algocrypto/internal/config"
	"github.com/bryanlew/algocrypto/internal/exchange"
	"github.com/bryanlew/algocrypto/internal/logger"
	"github.com/bryanlew/algocrypto/pkg/types"
)

// scriptedGateway feeds canned market data and records orders.
type scriptedGateway struct {
	price     float64
	prices    map[string]float64 // per-symbol override of price
	equity    float64
	klines    []types.OHLCV
	klinesErr error
	opened    int
	closed    int
}

func (s *scriptedGateway) PlaceMarketOrder(_ context.Context, symbol string, side types.Side, qty float64, _ exchange.PositionSlot) (*exchange.OrderResult, error) {
	s.opened++
	return &exchange.OrderResult{OrderID: "o1", Symbol: symbol, Side: side, Quantity: qty}, nil
}

func (s *scriptedGateway) ClosePosition(_ context.Context, symbol string, side types.Side, qty float64, _ exchange.PositionSlot) (*exchange.OrderResult, error) {
	s.closed++
	return &exchange.OrderResult{OrderID: "c1", Symbol: symbol, Side: side, Quantity: qty}, nil
}

func (s *scriptedGateway) GetCurrentPrice(_ context.Context, symbol string) (float64, error) {
	if p, ok := s.prices[symbol]; ok {
		return p, nil
	}
	return s.price, nil
}

func (s *scriptedGateway) GetPortfolioValue(context.Context) (float64, error) {
	return s.equity, nil
}

func (s *scriptedGateway) GetInstrumentConstraints(context.Context, string) (exchange.InstrumentConstraints, error) {
	return exchange.InstrumentConstraints{QuantityStep: 0.001, MinimumQuantity: 0.001}, nil
}

func (s *scriptedGateway) GetKlines(context.Context, string, string, int) ([]types.OHLCV, error) {
	return s.klines, s.klinesErr
}

func (s *scriptedGateway) SetLeverage(context.Context, string, int) error { return nil }

func risingKlines(n int) []types.OHLCV {
	out := make([]types.OHLCV, n)
	price := 100.0
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = types.OHLCV{
			Open: price, High: price, Low: price, Close: price,
			Volume: 1, Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
		price *= 1.01
	}
	return out
}

func newTestBot(t *testing.T, gw *scriptedGateway, configJSON string) *LiveBot {
	t.Helper()

	// The file logger writes under ./logs.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	path := filepath.Join(t.TempDir(), "trading_config.json")
	require.NoError(t, os.WriteFile(path, []byte(configJSON), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	log, err := logger.NewLogger("test", cfg.Trading.Interval)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	watcher := config.NewWatcher(path, cfg.Trading, time.Minute)
	return NewLiveBot(gw, watcher, log, Options{Environment: "test"})
}

func TestTickOpensPositionOnSignal(t *testing.T) {
	gw := &scriptedGateway{price: 180, equity: 100000, klines: risingKlines(60)}
	b := newTestBot(t, gw, `{"trading": {
		"enabled": true,
		"assets": ["BTCUSDT"],
		"strategy": "ma_cross"
	}}`)

	require.NoError(t, b.selectStrategies(context.Background(), b.watcher.Current()))
	b.checkAndTrade(context.Background())

	// A steady uptrend keeps the short MA above the long one.
	assert.Equal(t, 1, gw.opened)
	assert.Equal(t, 1, b.Manager().Ledger().OpenSlots())

	// The same signal on the next tick is a no-op.
	b.checkAndTrade(context.Background())
	assert.Equal(t, 1, gw.opened)
}

func TestDisabledConfigOnlyMonitors(t *testing.T) {
	gw := &scriptedGateway{price: 180, equity: 100000, klines: risingKlines(60)}
	b := newTestBot(t, gw, `{"trading": {
		"enabled": false,
		"assets": ["BTCUSDT"],
		"strategy": "ma_cross"
	}}`)

	require.NoError(t, b.selectStrategies(context.Background(), b.watcher.Current()))
	b.checkAndTrade(context.Background())

	assert.Zero(t, gw.opened)
	assert.Zero(t, b.Manager().Ledger().OpenSlots())
}

func TestTickRunsExitsBeforeSignals(t *testing.T) {
	gw := &scriptedGateway{price: 180, equity: 100000, klines: risingKlines(60)}
	b := newTestBot(t, gw, `{"trading": {
		"enabled": true,
		"assets": ["BTCUSDT"],
		"strategy": "ma_cross"
	}}`)

	require.NoError(t, b.selectStrategies(context.Background(), b.watcher.Current()))
	b.checkAndTrade(context.Background())
	require.Equal(t, 1, b.Manager().Ledger().OpenSlots())

	// Price collapses through the 2% stop; kline fetch breaks so no fresh
	// signal fires, but the protective exit still runs.
	gw.price = 170
	gw.klinesErr = errors.New("exchange down")
	b.checkAndTrade(context.Background())

	assert.Equal(t, 1, gw.closed)
	assert.Equal(t, 0, b.Manager().Ledger().OpenSlots())

	trades := b.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "stop_loss", trades[0].Reason)
}

func TestLastPriceReportsMostRecentlyFetched(t *testing.T) {
	gw := &scriptedGateway{
		equity: 100000,
		klines: risingKlines(60),
		prices: map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2000},
	}
	b := newTestBot(t, gw, `{"trading": {
		"enabled": false,
		"assets": ["BTCUSDT", "ETHUSDT"],
		"strategy": "ma_cross"
	}}`)

	b.checkAndTrade(context.Background())

	// Symbols are processed in config order, so the health tick carries the
	// last fetch of the tick rather than an arbitrary map entry.
	assert.InDelta(t, 2000, b.lastPrice(), 1e-9)
}

func TestKlineFailureSkipsSymbol(t *testing.T) {
	gw := &scriptedGateway{price: 180, equity: 100000, klinesErr: errors.New("exchange down")}
	b := newTestBot(t, gw, `{"trading": {
		"enabled": true,
		"assets": ["BTCUSDT"],
		"strategy": "ma_cross"
	}}`)

	require.NoError(t, b.selectStrategies(context.Background(), b.watcher.Current()))
	b.checkAndTrade(context.Background())

	assert.Zero(t, gw.opened)
}
