package strategy

import (
	"errors"
	"fmt"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// MACross is an always-in trend follower: long while the short moving
// average sits above the long one, short otherwise.
type MACross struct {
	shortPeriod int
	longPeriod  int
}

// NewMACross creates the strategy with the given moving average periods.
func NewMACross(shortPeriod, longPeriod int) *MACross {
	return &MACross{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}
}

func (ma *MACross) Name() string {
	return fmt.Sprintf("ma_cross_%d_%d", ma.shortPeriod, ma.longPeriod)
}

// Signals computes the signal series over the candles.
func (ma *MACross) Signals(data []types.OHLCV) ([]types.Signal, error) {
	if ma.shortPeriod < 1 || ma.longPeriod <= ma.shortPeriod {
		return nil, errors.New("ma cross periods must satisfy 0 < short < long")
	}

	closes := types.Closes(data)
	signals := make([]types.Signal, len(data))

	for i := range closes {
		if i < ma.longPeriod-1 {
			signals[i] = types.SignalFlat
			continue
		}

		shortMA := sma(closes[i-ma.shortPeriod+1 : i+1])
		longMA := sma(closes[i-ma.longPeriod+1 : i+1])
		if shortMA > longMA {
			signals[i] = types.SignalLong
		} else {
			signals[i] = types.SignalShort
		}
	}

	return signals, nil
}
