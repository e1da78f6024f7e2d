package strategy

import (
	"errors"
	"fmt"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// BollingerBreakout trades mean reversion off the Bollinger Bands: a close
// below the lower band calls long, a close above the upper band calls short.
// Between the bands the previous call is carried forward, so the strategy
// stays positioned until the opposite band is tagged.
type BollingerBreakout struct {
	period         int
	stdDevMultiple float64
}

// NewBollingerBreakout creates the strategy with the given lookback period
// and band width in standard deviations.
func NewBollingerBreakout(period int, stdDev float64) *BollingerBreakout {
	return &BollingerBreakout{
		period:         period,
		stdDevMultiple: stdDev,
	}
}

func (bb *BollingerBreakout) Name() string {
	return fmt.Sprintf("bollinger_%d_%.1f", bb.period, bb.stdDevMultiple)
}

// Signals computes the signal series over the candles.
func (bb *BollingerBreakout) Signals(data []types.OHLCV) ([]types.Signal, error) {
	if bb.period < 2 {
		return nil, errors.New("bollinger period must be at least 2")
	}

	closes := types.Closes(data)
	signals := make([]types.Signal, len(data))

	current := types.SignalFlat
	for i := range closes {
		if i < bb.period-1 {
			signals[i] = types.SignalFlat
			continue
		}

		window := closes[i-bb.period+1 : i+1]
		middle := sma(window)
		std := sampleStdDev(window, middle)
		upper := middle + bb.stdDevMultiple*std
		lower := middle - bb.stdDevMultiple*std

		switch {
		case closes[i] < lower:
			current = types.SignalLong
		case closes[i] > upper:
			current = types.SignalShort
		}
		signals[i] = current
	}

	return signals, nil
}
