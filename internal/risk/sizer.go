// Package risk implements position sizing and the account-level drawdown
// kill switch.
package risk

import (
	"fmt"
	"math"
)

// Sizer converts a risk budget into a position quantity. The quantity is
// chosen so that a stop-out at the stop price loses at most the configured
// fraction of trading capital.
type Sizer struct {
	capital      float64
	riskFraction float64
	tradeable    map[string]struct{}
}

// NewSizer creates a sizer over a fixed trading capital. Only symbols in the
// tradeable allow-list may be sized; everything else is denied.
func NewSizer(capital, riskFraction float64, tradeable []string) *Sizer {
	allowed := make(map[string]struct{}, len(tradeable))
	for _, s := range tradeable {
		allowed[s] = struct{}{}
	}
	return &Sizer{
		capital:      capital,
		riskFraction: riskFraction,
		tradeable:    allowed,
	}
}

// Size returns the quantity for a trade entering at entry with a protective
// stop at stop. A denial is an error, never a zero-quantity success: callers
// must not interpret a failed sizing as a free trade.
func (s *Sizer) Size(symbol string, entry, stop float64) (float64, error) {
	if _, ok := s.tradeable[symbol]; !ok {
		return 0, fmt.Errorf("symbol %s is not tradeable", symbol)
	}
	if entry <= 0 {
		return 0, fmt.Errorf("entry price must be positive, got %f", entry)
	}
	if stop <= 0 {
		return 0, fmt.Errorf("stop price must be positive, got %f", stop)
	}

	riskPerUnit := math.Abs(entry - stop)
	if riskPerUnit == 0 {
		return 0, fmt.Errorf("entry and stop prices are equal, risk per unit is zero")
	}

	riskBudget := s.capital * s.riskFraction
	qty := riskBudget / riskPerUnit
	if qty <= 0 || math.IsInf(qty, 0) || math.IsNaN(qty) {
		return 0, fmt.Errorf("computed quantity %f is not usable", qty)
	}

	return qty, nil
}

// Capital returns the trading capital the sizer budgets against.
func (s *Sizer) Capital() float64 {
	return s.capital
}
