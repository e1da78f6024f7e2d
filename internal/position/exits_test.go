package position

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanlew/algocrypto/pkg/types"
)

func TestExitMonitorStopLoss(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestManager(types.ModeOneWay, gw)
	em := NewExitMonitor(m)

	var closes []ClosedTrade
	m.SetCloseHook(func(ct ClosedTrade) { closes = append(closes, ct) })

	m.OnSignal(context.Background(), "BTCUSDT", types.SignalLong, 100, 100000)

	// Above the stop nothing happens.
	assert.Empty(t, em.CheckExits(context.Background(), "BTCUSDT", 99))

	closed := em.CheckExits(context.Background(), "BTCUSDT", 97.5)
	require.Len(t, closed, 1)
	assert.Equal(t, ExitStopLoss, closed[0].Kind)
	assert.Equal(t, 0, m.Ledger().OpenSlots())

	require.Len(t, closes, 1)
	assert.Equal(t, ReasonStopLoss, closes[0].Reason)
	assert.InDelta(t, -1250, closes[0].PnL, 1e-9) // 500 contracts, 2.5 points against
}

func TestExitMonitorTakeProfit(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestManager(types.ModeOneWay, gw)
	em := NewExitMonitor(m)

	m.OnSignal(context.Background(), "BTCUSDT", types.SignalShort, 100, 100000)

	closed := em.CheckExits(context.Background(), "BTCUSDT", 96)
	require.Len(t, closed, 1)
	assert.Equal(t, ExitTakeProfit, closed[0].Kind)
}

func TestExitMonitorStopLossWinsOverTakeProfit(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestManager(types.ModeOneWay, gw)
	em := NewExitMonitor(m)

	m.OnSignal(context.Background(), "BTCUSDT", types.SignalLong, 100, 100000)

	// Force both levels behind the price so a single tick crosses both.
	pos, _ := m.Ledger().Net("BTCUSDT")
	m.Ledger().remove(pos.Symbol, pos.Side)
	pos.StopLoss = 101
	pos.TakeProfit = 99
	require.NoError(t, m.Ledger().open(pos))

	closed := em.CheckExits(context.Background(), "BTCUSDT", 100)
	require.Len(t, closed, 1)
	assert.Equal(t, ExitStopLoss, closed[0].Kind)
}

func TestExitMonitorRetriesFailedClose(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestManager(types.ModeOneWay, gw)
	em := NewExitMonitor(m)

	m.OnSignal(context.Background(), "BTCUSDT", types.SignalLong, 100, 100000)

	gw.failClose = true
	assert.Empty(t, em.CheckExits(context.Background(), "BTCUSDT", 90))
	// The position stays in the ledger for the next sweep.
	assert.Equal(t, 1, m.Ledger().OpenSlots())

	gw.failClose = false
	closed := em.CheckExits(context.Background(), "BTCUSDT", 90)
	require.Len(t, closed, 1)
	assert.Equal(t, 0, m.Ledger().OpenSlots())
}

func TestExitMonitorHedgeModeClosesOnlyTriggeredSide(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestManager(types.ModeHedge, gw)
	em := NewExitMonitor(m)

	m.OnSignal(context.Background(), "BTCUSDT", types.SignalLong, 100, 100000)
	m.OnSignal(context.Background(), "BTCUSDT", types.SignalShort, 100, 100000)

	// 97.5 crosses the long's stop at 98 but not the short's levels
	// (stop 102, target 96).
	closed := em.CheckExits(context.Background(), "BTCUSDT", 97.5)
	require.Len(t, closed, 1)
	assert.Equal(t, types.SideLong, closed[0].Side)
	assert.Equal(t, 1, m.Ledger().OpenSlots())
}
