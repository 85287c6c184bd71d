// Package metrics exposes Prometheus collectors for HTTP traffic, bidding
// and the auction close sweeper.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bidhouse"

// Metrics owns a registry and the collectors registered on it
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	bidsPlaced      prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	bidRetries      prometheus.Counter
	bidAmount       prometheus.Histogram
	outbids         prometheus.Counter
	auctionsClosed  *prometheus.CounterVec
	usersRegistered *prometheus.CounterVec

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// New creates a registry with process and Go runtime collectors plus the
// application collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bidding",
			Name:      "bids_placed_total",
			Help:      "Total number of accepted bids.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bidding",
			Name:      "bids_rejected_total",
			Help:      "Bids refused, by error code.",
		}, []string{"code"}),
		bidRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bidding",
			Name:      "version_conflict_retries_total",
			Help:      "Bid placements retried after a concurrent update.",
		}),
		bidAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bidding",
			Name:      "bid_amount",
			Help:      "Accepted bid amounts.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		outbids: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bidding",
			Name:      "outbid_total",
			Help:      "Times a leading bidder was overtaken.",
		}),
		auctionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "closed_total",
			Help:      "Auctions settled, by final status.",
		}, []string{"status"}),
		usersRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "users_registered_total",
			Help:      "Registrations, by role.",
		}, []string{"role"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs.",
		}, []string{"job", "success"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"job"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.bidsPlaced,
		m.bidsRejected,
		m.bidRetries,
		m.bidAmount,
		m.outbids,
		m.auctionsClosed,
		m.usersRegistered,
		m.jobRuns,
		m.jobDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware records request counts and latency. The matched route
// pattern is used as label so path parameters do not explode cardinality.
func (m *Metrics) GinMiddleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// BidPlaced records an accepted bid
func (m *Metrics) BidPlaced(amount float64) {
	m.bidsPlaced.Inc()
	m.bidAmount.Observe(amount)
}

// BidRejected records a refused bid by error code
func (m *Metrics) BidRejected(code string) {
	if code == "" {
		code = "unknown"
	}
	m.bidsRejected.WithLabelValues(code).Inc()
}

// BidRetried records a retry after an optimistic locking conflict
func (m *Metrics) BidRetried() {
	m.bidRetries.Inc()
}

func (m *Metrics) Outbid() {
	m.outbids.Inc()
}

func (m *Metrics) AuctionClosed(status string) {
	m.auctionsClosed.WithLabelValues(status).Inc()
}

func (m *Metrics) UserRegistered(role string) {
	m.usersRegistered.WithLabelValues(role).Inc()
}

// ObserveJob matches scheduler.JobObserver
func (m *Metrics) ObserveJob(name string, duration time.Duration, err error) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	m.jobRuns.WithLabelValues(name, strconv.FormatBool(err == nil)).Inc()
	m.jobDuration.WithLabelValues(name).Observe(duration.Seconds())
}
