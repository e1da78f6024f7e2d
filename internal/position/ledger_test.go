package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanlew/algocrypto/pkg/types"
)

func TestLedgerOneWayMode(t *testing.T) {
	l := NewLedger(types.ModeOneWay)

	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))

	// The occupied net slot rejects any further open, same side or not.
	assert.Error(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideShort, Size: 1}))
	assert.Error(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))

	pos, ok := l.Net("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, types.SideLong, pos.Side)

	// Get is side-sensitive even in one-way mode.
	_, ok = l.Get("BTCUSDT", types.SideShort)
	assert.False(t, ok)
	_, ok = l.Get("BTCUSDT", types.SideLong)
	assert.True(t, ok)

	// Removing the wrong side is a no-op.
	_, ok = l.remove("BTCUSDT", types.SideShort)
	assert.False(t, ok)
	assert.Equal(t, 1, l.OpenSlots())

	removed, ok := l.remove("BTCUSDT", types.SideLong)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", removed.Symbol)
	assert.Equal(t, 0, l.OpenSlots())
}

func TestLedgerHedgeMode(t *testing.T) {
	l := NewLedger(types.ModeHedge)

	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideShort, Size: 2}))

	// Same side twice is still rejected.
	assert.Error(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))

	assert.Equal(t, 2, l.OpenSlots())
	assert.Len(t, l.Positions("BTCUSDT"), 2)

	long, ok := l.Get("BTCUSDT", types.SideLong)
	require.True(t, ok)
	assert.InDelta(t, 1, long.Size, 1e-9)

	// Closing one side leaves the other untouched.
	_, ok = l.remove("BTCUSDT", types.SideLong)
	require.True(t, ok)
	assert.Equal(t, 1, l.OpenSlots())
	_, ok = l.Get("BTCUSDT", types.SideShort)
	assert.True(t, ok)
}

func TestLedgerAllSpansSymbols(t *testing.T) {
	l := NewLedger(types.ModeOneWay)
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))
	require.NoError(t, l.open(Position{Symbol: "ETHUSDT", Side: types.SideShort, Size: 3}))

	assert.Len(t, l.All(), 2)
	assert.Equal(t, 2, l.OpenSlots())
}

func TestConvertModeOneWayToHedge(t *testing.T) {
	l := NewLedger(types.ModeOneWay)
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))
	require.NoError(t, l.open(Position{Symbol: "ETHUSDT", Side: types.SideShort, Size: 3}))

	dropped := l.ConvertMode(types.ModeHedge)
	assert.Empty(t, dropped)
	assert.Equal(t, types.ModeHedge, l.Mode())

	// Each net position landed in its side's slot.
	long, ok := l.Get("BTCUSDT", types.SideLong)
	require.True(t, ok)
	assert.InDelta(t, 1, long.Size, 1e-9)
	short, ok := l.Get("ETHUSDT", types.SideShort)
	require.True(t, ok)
	assert.InDelta(t, 3, short.Size, 1e-9)
	assert.Equal(t, 2, l.OpenSlots())

	// The opposite slot is free for a hedged open.
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideShort, Size: 2}))
}

func TestConvertModeHedgeToOneWayKeepsLong(t *testing.T) {
	l := NewLedger(types.ModeHedge)
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideShort, Size: 2}))
	require.NoError(t, l.open(Position{Symbol: "ETHUSDT", Side: types.SideShort, Size: 3}))

	dropped := l.ConvertMode(types.ModeOneWay)
	assert.Equal(t, types.ModeOneWay, l.Mode())

	// The long survives as the net position; the coexisting short is dropped
	// and reported.
	require.Len(t, dropped, 1)
	assert.Equal(t, "BTCUSDT", dropped[0].Symbol)
	assert.Equal(t, types.SideShort, dropped[0].Side)

	net, ok := l.Net("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, types.SideLong, net.Side)

	// A lone short becomes the net position, whatever its side.
	net, ok = l.Net("ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, types.SideShort, net.Side)
	assert.Equal(t, 2, l.OpenSlots())
}

func TestConvertModeSameModeIsNoOp(t *testing.T) {
	l := NewLedger(types.ModeOneWay)
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1}))

	assert.Empty(t, l.ConvertMode(types.ModeOneWay))
	_, ok := l.Net("BTCUSDT")
	assert.True(t, ok)
}

func TestLedgerReturnsCopies(t *testing.T) {
	l := NewLedger(types.ModeOneWay)
	require.NoError(t, l.open(Position{Symbol: "BTCUSDT", Side: types.SideLong, Size: 1, EntryPrice: 100}))

	pos, _ := l.Net("BTCUSDT")
	pos.EntryPrice = 999

	again, _ := l.Net("BTCUSDT")
	assert.InDelta(t, 100, again.EntryPrice, 1e-9)
}

func TestPositionPnLAndTriggers(t *testing.T) {
	long := Position{Side: types.SideLong, Size: 2, EntryPrice: 100, StopLoss: 98, TakeProfit: 104}
	short := Position{Side: types.SideShort, Size: 2, EntryPrice: 100, StopLoss: 102, TakeProfit: 96}

	assert.InDelta(t, 10, long.UnrealizedPnL(105), 1e-9)
	assert.InDelta(t, -10, long.UnrealizedPnL(95), 1e-9)
	assert.InDelta(t, 10, short.UnrealizedPnL(95), 1e-9)

	assert.True(t, long.stopLossHit(98))
	assert.False(t, long.stopLossHit(98.01))
	assert.True(t, long.takeProfitHit(104))
	assert.True(t, short.stopLossHit(102))
	assert.True(t, short.takeProfitHit(96))
	assert.False(t, short.takeProfitHit(96.01))
}
