// Package metrics exposes Prometheus counters and gauges for the matching
// engine and event multiplexer. Grounded on
// abdoElHodaky-tradSys/internal/monitoring.MetricsCollector's use of
// promauto.NewCounterVec/NewGaugeVec, adapted to this engine's domain
// (submissions, trades, quarantines, subscriber queue depth) rather than
// that repo's market-data/websocket/strategy metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the engine's Prometheus instruments. The zero value is
// not usable; construct with New.
type Collector struct {
	SubmissionsTotal   *prometheus.CounterVec
	TradesTotal        *prometheus.CounterVec
	RejectionsTotal    *prometheus.CounterVec
	QuarantinedSymbols *prometheus.GaugeVec
	SubscriberOverflow *prometheus.CounterVec
	BookDepth          *prometheus.GaugeVec
}

// New registers and returns a fresh Collector against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the global
// default registry across test runs.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_submissions_total",
			Help: "Total order submissions accepted, by symbol and resulting status.",
		}, []string{"symbol", "status"}),
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_trades_total",
			Help: "Total trades executed, by symbol.",
		}, []string{"symbol"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_rejections_total",
			Help: "Total rejected submissions, by symbol and reject reason.",
		}, []string{"symbol", "reason"}),
		QuarantinedSymbols: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchcore_symbol_quarantined",
			Help: "1 if the symbol's engine is quarantined after an internal invariant failure, else 0.",
		}, []string{"symbol"}),
		SubscriberOverflow: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_subscriber_overflow_total",
			Help: "Total subscriber queue overflows, by topic.",
		}, []string{"topic"}),
		BookDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchcore_book_price_levels",
			Help: "Current number of distinct price levels, by symbol and side.",
		}, []string{"symbol", "side"}),
	}
}
