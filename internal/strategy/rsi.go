package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// RSIReversal fades extremes of the Relative Strength Index: oversold calls
// long, overbought calls short, anything in between is flat.
type RSIReversal struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIReversal creates the strategy with the given RSI period and
// oversold/overbought thresholds.
func NewRSIReversal(period int, oversold, overbought float64) *RSIReversal {
	return &RSIReversal{
		period:     period,
		oversold:   oversold,
		overbought: overbought,
	}
}

func (r *RSIReversal) Name() string {
	return fmt.Sprintf("rsi_%d_%.0f_%.0f", r.period, r.oversold, r.overbought)
}

// Signals computes the signal series over the candles.
func (r *RSIReversal) Signals(data []types.OHLCV) ([]types.Signal, error) {
	if r.period < 1 {
		return nil, errors.New("rsi period must be at least 1")
	}
	if r.oversold >= r.overbought {
		return nil, errors.New("rsi oversold threshold must be below overbought")
	}

	closes := types.Closes(data)
	signals := make([]types.Signal, len(data))

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = math.Abs(change)
		}
	}

	for i := range closes {
		if i < r.period {
			signals[i] = types.SignalFlat
			continue
		}

		avgGain := sma(gains[i-r.period+1 : i+1])
		avgLoss := sma(losses[i-r.period+1 : i+1])

		rsi := 100.0
		if avgLoss > 0 {
			rs := avgGain / avgLoss
			rsi = 100 - (100 / (1 + rs))
		}

		switch {
		case rsi < r.oversold:
			signals[i] = types.SignalLong
		case rsi > r.overbought:
			signals[i] = types.SignalShort
		default:
			signals[i] = types.SignalFlat
		}
	}

	return signals, nil
}
