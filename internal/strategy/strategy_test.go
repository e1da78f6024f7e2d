package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanlew/algocrypto/pkg/types"
)

func candles(closes ...float64) []types.OHLCV {
	out := make([]types.OHLCV, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = types.OHLCV{
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return out
}

func TestBollingerBreakoutSignals(t *testing.T) {
	bb := NewBollingerBreakout(3, 1)

	// A plunge below the lower band calls long; the recovery bar stays
	// inside the bands so the long call is carried forward; the spike above
	// the upper band flips short.
	signals, err := bb.Signals(candles(100, 100, 100, 90, 100, 115))
	require.NoError(t, err)

	expected := []types.Signal{
		types.SignalFlat, // warmup
		types.SignalFlat, // warmup
		types.SignalFlat, // flat series, bands collapse onto the price
		types.SignalLong,
		types.SignalLong, // carried forward
		types.SignalShort,
	}
	assert.Equal(t, expected, signals)
}

func TestBollingerBreakoutRejectsBadPeriod(t *testing.T) {
	_, err := NewBollingerBreakout(1, 2).Signals(candles(1, 2, 3))
	assert.Error(t, err)
}

func TestMACrossSignals(t *testing.T) {
	ma := NewMACross(2, 3)

	signals, err := ma.Signals(candles(1, 2, 3, 4, 3, 2, 1))
	require.NoError(t, err)

	expected := []types.Signal{
		types.SignalFlat,
		types.SignalFlat,
		types.SignalLong,
		types.SignalLong,
		types.SignalLong,
		types.SignalShort,
		types.SignalShort,
	}
	assert.Equal(t, expected, signals)
}

func TestMACrossRejectsBadPeriods(t *testing.T) {
	_, err := NewMACross(5, 5).Signals(candles(1, 2, 3))
	assert.Error(t, err)
	_, err = NewMACross(0, 3).Signals(candles(1, 2, 3))
	assert.Error(t, err)
}

func TestRSIReversalSignals(t *testing.T) {
	rsi := NewRSIReversal(2, 30, 70)

	tests := []struct {
		name     string
		closes   []float64
		expected types.Signal
	}{
		{"pure rally is overbought", []float64{100, 110, 120}, types.SignalShort},
		{"pure selloff is oversold", []float64{100, 90, 80}, types.SignalLong},
		{"balanced moves stay flat", []float64{100, 105, 100}, types.SignalFlat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, err := LatestSignal(rsi, candles(tt.closes...))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, signal)
		})
	}
}

func TestRSIReversalWarmupIsFlat(t *testing.T) {
	rsi := NewRSIReversal(14, 30, 70)

	signals, err := rsi.Signals(candles(100, 101, 102))
	require.NoError(t, err)
	for _, s := range signals {
		assert.Equal(t, types.SignalFlat, s)
	}
}

func TestEvaluatorRanksBySharpe(t *testing.T) {
	// A steady uptrend: the trend follower rides it, the RSI fader keeps
	// shorting strength and bleeds.
	closes := make([]float64, 0, 60)
	price := 100.0
	for i := 0; i < 60; i++ {
		closes = append(closes, price)
		price *= 1.01
	}

	ev := NewEvaluator(
		NewMACross(5, 20),
		NewRSIReversal(14, 30, 70),
	)

	results, err := ev.Evaluate(candles(closes...))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, NewMACross(5, 20).Name(), results[0].Strategy)
	assert.Greater(t, results[0].ROI, 0.0)
	assert.Greater(t, results[0].SharpeRatio, results[1].SharpeRatio)

	best, perf, err := ev.Best(candles(closes...))
	require.NoError(t, err)
	assert.Equal(t, results[0].Strategy, best.Name())
	assert.Equal(t, results[0].Strategy, perf.Strategy)
}

func TestScoreCountsTransitionsAndDrawdown(t *testing.T) {
	signals := []types.Signal{
		types.SignalFlat,
		types.SignalLong,
		types.SignalLong,
		types.SignalShort,
	}
	closes := []float64{100, 100, 110, 99}

	perf := score("test", signals, closes)

	// flat→long, long→short.
	assert.Equal(t, 2, perf.Trades)
	// Bar returns: 0, +10%, -10%; equity 1.0 → 1.1 → 0.99.
	assert.InDelta(t, -0.01, perf.ROI, 1e-9)
	assert.InDelta(t, 0.10, perf.MaxDrawdown, 1e-9)
}
