package risk

import "sync"

// DrawdownGuard is the account-level kill switch. It tracks the peak
// portfolio value seen during the session and reports a halt whenever the
// drawdown from that peak reaches the configured limit. The peak never
// decreases, so trading resumes only after the portfolio recovers, not
// because losses stopped getting worse.
type DrawdownGuard struct {
	mu    sync.Mutex
	peak  float64
	limit float64
}

// NewDrawdownGuard creates a guard seeded with the starting portfolio value.
// limit is a fraction: 0.20 halts trading at a 20% drawdown from peak.
func NewDrawdownGuard(initialCapital, limit float64) *DrawdownGuard {
	return &DrawdownGuard{
		peak:  initialCapital,
		limit: limit,
	}
}

// Check records the latest portfolio value and reports whether new entries
// must be refused. A drawdown exactly at the limit halts.
func (g *DrawdownGuard) Check(value float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if value > g.peak {
		g.peak = value
	}
	return g.drawdownLocked(value) >= g.limit
}

// Drawdown returns the drawdown fraction for the given value against the
// recorded peak without updating the peak.
func (g *DrawdownGuard) Drawdown(value float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drawdownLocked(value)
}

func (g *DrawdownGuard) drawdownLocked(value float64) float64 {
	if g.peak <= 0 {
		return 0
	}
	dd := (g.peak - value) / g.peak
	if dd < 0 {
		return 0
	}
	return dd
}

// Peak returns the highest portfolio value seen so far.
func (g *DrawdownGuard) Peak() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}
