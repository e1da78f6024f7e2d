// Package monitoring exposes Prometheus metrics and a health endpoint for
// the trading bot.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "algocrypto_trades_total",
			Help: "Total number of positions opened",
		},
		[]string{"symbol", "side"},
	)

	refusalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "algocrypto_refusals_total",
			Help: "Total number of refused entry attempts",
		},
		[]string{"reason"},
	)

	exitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "algocrypto_exits_total",
			Help: "Total number of protective exits",
		},
		[]string{"symbol", "kind"},
	)

	// A gauge rather than a counter: losses move it down.
	realizedPnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algocrypto_realized_pnl",
			Help: "Cumulative realized profit and loss",
		},
		[]string{"symbol"},
	)

	// Market and account metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "algocrypto_current_price",
			Help: "Last traded price of a symbol",
		},
		[]string{"symbol"},
	)

	portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "algocrypto_portfolio_value",
			Help: "Account equity including unrealized PnL",
		},
	)

	drawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "algocrypto_drawdown",
			Help: "Current drawdown fraction from the session peak",
		},
	)

	openSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "algocrypto_open_slots",
			Help: "Number of occupied position slots",
		},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "algocrypto_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(refusalsTotal)
	prometheus.MustRegister(exitsTotal)
	prometheus.MustRegister(realizedPnL)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(portfolioValue)
	prometheus.MustRegister(drawdown)
	prometheus.MustRegister(openSlots)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus metrics endpoint.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records an opened position.
func RecordTrade(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRefusal records a refused entry attempt.
func RecordRefusal(reason string) {
	refusalsTotal.WithLabelValues(reason).Inc()
}

// RecordExit records a stop-loss or take-profit exit.
func RecordExit(symbol, kind string) {
	exitsTotal.WithLabelValues(symbol, kind).Inc()
}

// RecordRealizedPnL adds a closed trade's PnL to the cumulative gauge.
func RecordRealizedPnL(symbol string, pnl float64) {
	realizedPnL.WithLabelValues(symbol).Add(pnl)
}

// UpdatePrice updates the last traded price gauge.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdatePortfolio updates equity and drawdown gauges.
func UpdatePortfolio(value, dd float64) {
	portfolioValue.Set(value)
	drawdown.Set(dd)
}

// UpdateOpenSlots updates the occupied slot gauge.
func UpdateOpenSlots(n int) {
	openSlots.Set(float64(n))
}

// RecordError records an error metric.
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
