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
			Name: "signal_bot_trades_total",
			Help: "Total number of positions opened",
		},
		[]string{"symbol", "side"},
	)

	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_bot_rejections_total",
			Help: "Trade intents refused by the risk manager",
		},
		[]string{"symbol", "reason"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_bot_current_price",
			Help: "Last observed price per symbol",
		},
		[]string{"symbol"},
	)

	// Signal metrics
	signalScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_bot_signal_score",
			Help: "Latest composite signal score per symbol and direction",
		},
		[]string{"symbol", "direction"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_bot_open_positions",
			Help: "Number of currently open positions",
		},
	)

	// Error metrics
	exchangeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_bot_exchange_errors_total",
			Help: "Exchange errors by taxonomy kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(rejectionsTotal)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(signalScore)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(exchangeErrorsTotal)
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade counts an opened position.
func RecordTrade(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRejection counts a risk manager refusal.
func RecordRejection(symbol, reason string) {
	rejectionsTotal.WithLabelValues(symbol, reason).Inc()
}

// UpdatePrice updates the last observed price.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdateSignalScore publishes the latest evaluation scores.
func UpdateSignalScore(symbol, direction string, score float64) {
	signalScore.WithLabelValues(symbol, direction).Set(score)
}

// SetOpenPositions publishes the open position count.
func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

// RecordExchangeError counts an exchange error by kind.
func RecordExchangeError(kind string) {
	exchangeErrorsTotal.WithLabelValues(kind).Inc()
}
