// Package metrics exposes matchcore's Prometheus instrumentation: a
// Collector that implements matchcore.Reporter to turn trades and rejects
// into counters, plus gauges for book depth and venue feed health. Modeled
// on the perp-dex example's metrics.Collector — namespaced CounterVec /
// GaugeVec / HistogramVec fields, a MustRegister pass in NewCollector, and a
// thin Record* helper per concern.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raventid/matchcore/internal/matchcore"
)

// Collector holds every metric matchcore and its ambient stack emit.
type Collector struct {
	OrdersAccepted  *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	TradesTotal     prometheus.Counter
	TradedQuantity  prometheus.Counter
	MatchLatency    prometheus.Histogram
	BookDepth       *prometheus.GaugeVec
	BestPrice       *prometheus.GaugeVec
	VenueSeq        prometheus.Gauge
	VenueStaleDrops prometheus.Counter
	FeedReconnects  prometheus.Counter
	SessionsActive  prometheus.Gauge
}

// NewCollector builds and registers a Collector against reg. Passing
// prometheus.NewRegistry() (rather than the global DefaultRegisterer)
// keeps repeated construction in tests from panicking on duplicate
// registration.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		OrdersAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "orders",
			Name:      "accepted_total",
			Help:      "Orders admitted by Submit, by side and type.",
		}, []string{"side", "type"}),

		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Orders rejected by Submit, by reason.",
		}, []string{"reason"}),

		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "trades",
			Name:      "total",
			Help:      "Trades emitted by the matching pass.",
		}),

		TradedQuantity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "trades",
			Name:      "quantity_total",
			Help:      "Cumulative matched quantity.",
		}),

		MatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchcore",
			Subsystem: "book",
			Name:      "submit_latency_seconds",
			Help:      "Wall-clock time spent inside MatchCore.Submit.",
			Buckets:   prometheus.DefBuckets,
		}),

		BookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "book",
			Name:      "resting_orders",
			Help:      "Resting order count, by side.",
		}, []string{"side"}),

		BestPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "book",
			Name:      "best_price_ticks",
			Help:      "Best bid/ask price in ticks.",
		}, []string{"side"}),

		VenueSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "venue",
			Name:      "last_update_id",
			Help:      "Last applied depth sequence id.",
		}),

		VenueStaleDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "venue",
			Name:      "stale_depth_drops_total",
			Help:      "Depth updates dropped for arriving out of sequence.",
		}),

		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Venue feed websocket reconnect attempts.",
		}),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore",
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Currently connected matchserver sessions.",
		}),
	}

	reg.MustRegister(
		c.OrdersAccepted, c.OrdersRejected, c.TradesTotal, c.TradedQuantity,
		c.MatchLatency, c.BookDepth, c.BestPrice, c.VenueSeq,
		c.VenueStaleDrops, c.FeedReconnects, c.SessionsActive,
	)
	return c
}

// OnTrade implements matchcore.Reporter.
func (c *Collector) OnTrade(trade matchcore.Trade) {
	c.TradesTotal.Inc()
	c.TradedQuantity.Add(float64(trade.Bid.Quantity))
}

// OnReject implements matchcore.Reporter.
func (c *Collector) OnReject(order matchcore.Order, err error) {
	c.OrdersRejected.WithLabelValues(err.Error()).Inc()
}

// RecordAccepted records an order that passed Submit's admission checks.
func (c *Collector) RecordAccepted(order matchcore.Order) {
	c.OrdersAccepted.WithLabelValues(order.Side.String(), order.Type.String()).Inc()
}

// RecordBookState snapshots book-wide gauges from a point-in-time view.
func (c *Collector) RecordBookState(bidCount, askCount int, bid, ask matchcore.Price, ok bool) {
	c.BookDepth.WithLabelValues("bid").Set(float64(bidCount))
	c.BookDepth.WithLabelValues("ask").Set(float64(askCount))
	if ok {
		c.BestPrice.WithLabelValues("bid").Set(float64(bid))
		c.BestPrice.WithLabelValues("ask").Set(float64(ask))
	}
}

// RecordVenueSeq updates the last-applied depth sequence gauge.
func (c *Collector) RecordVenueSeq(seq uint64) {
	c.VenueSeq.Set(float64(seq))
}

// RecordStaleDepthDrop counts a depth update rejected for being stale.
func (c *Collector) RecordStaleDepthDrop() {
	c.VenueStaleDrops.Inc()
}

// RecordFeedReconnect counts a venue feed reconnect attempt.
func (c *Collector) RecordFeedReconnect() {
	c.FeedReconnects.Inc()
}

// SetSessionsActive sets the currently-connected matchserver session count.
func (c *Collector) SetSessionsActive(n int) {
	c.SessionsActive.Set(float64(n))
}

// Handler serves the registered metrics in the Prometheus text exposition
// format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
