package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// Performance summarizes how one strategy traded over a candle series.
// Returns are per-bar and unleveraged; the position for a bar is the signal
// from the previous bar's close, so results never look ahead.
type Performance struct {
	Strategy     string
	ROI          float64
	SharpeRatio  float64
	ProfitFactor float64
	MaxDrawdown  float64
	Trades       int
}

// Evaluator backtests signal sources over a shared candle series and ranks
// them. The live bot uses it at startup to pick a strategy per symbol when
// none is pinned in configuration.
type Evaluator struct {
	sources []SignalSource
}

// NewEvaluator creates an evaluator over the given strategies.
func NewEvaluator(sources ...SignalSource) *Evaluator {
	return &Evaluator{sources: sources}
}

// Evaluate scores every strategy on the candles, best Sharpe ratio first.
func (e *Evaluator) Evaluate(data []types.OHLCV) ([]Performance, error) {
	if len(data) < 2 {
		return nil, errors.New("not enough candles to evaluate")
	}

	results := make([]Performance, 0, len(e.sources))
	for _, src := range e.sources {
		signals, err := src.Signals(data)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", src.Name(), err)
		}
		results = append(results, score(src.Name(), signals, types.Closes(data)))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SharpeRatio > results[j].SharpeRatio
	})
	return results, nil
}

// Best returns the top-ranked strategy for the candles.
func (e *Evaluator) Best(data []types.OHLCV) (SignalSource, Performance, error) {
	results, err := e.Evaluate(data)
	if err != nil {
		return nil, Performance{}, err
	}
	for _, src := range e.sources {
		if src.Name() == results[0].Strategy {
			return src, results[0], nil
		}
	}
	return nil, Performance{}, fmt.Errorf("strategy %s not found", results[0].Strategy)
}

// barsPerYear annualizes the Sharpe ratio assuming daily candles.
const barsPerYear = 365

func score(name string, signals []types.Signal, closes []float64) Performance {
	perf := Performance{Strategy: name}

	returns := make([]float64, 0, len(closes)-1)
	equity := 1.0
	peak := 1.0

	for i := 1; i < len(closes); i++ {
		var exposure float64
		switch signals[i-1] {
		case types.SignalLong:
			exposure = 1
		case types.SignalShort:
			exposure = -1
		}

		r := 0.0
		if closes[i-1] != 0 {
			r = exposure * (closes[i] - closes[i-1]) / closes[i-1]
		}
		returns = append(returns, r)

		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > perf.MaxDrawdown {
				perf.MaxDrawdown = dd
			}
		}

		if signals[i] != signals[i-1] {
			perf.Trades++
		}
	}

	perf.ROI = equity - 1
	perf.SharpeRatio = sharpe(returns)
	perf.ProfitFactor = profitFactor(returns)
	return perf
}

func sharpe(returns []float64) float64 {
	mean := sma(returns)
	std := sampleStdDev(returns, mean)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(barsPerYear)
}

func profitFactor(returns []float64) float64 {
	var gains, losses float64
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses -= r
		}
	}
	if losses == 0 {
		if gains > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return gains / losses
}
