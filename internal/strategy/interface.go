// Package strategy implements the signal sources that drive the trading
// loop, plus an evaluator that scores them on historical candles.
package strategy

import (
	"math"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// SignalSource produces a directional signal series from candle data. The
// series is aligned with the input: Signals(data)[i] is the call after
// seeing bars 0..i. Bars before the warmup window are flat.
type SignalSource interface {
	Name() string
	Signals(data []types.OHLCV) ([]types.Signal, error)
}

// LatestSignal returns the signal for the most recent bar.
func LatestSignal(src SignalSource, data []types.OHLCV) (types.Signal, error) {
	signals, err := src.Signals(data)
	if err != nil {
		return types.SignalFlat, err
	}
	if len(signals) == 0 {
		return types.SignalFlat, nil
	}
	return signals[len(signals)-1], nil
}

// sma computes the Simple Moving Average of the given values.
func sma(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev computes the sample standard deviation (n-1 denominator).
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
