// Package metrics collects and exposes Prometheus metrics for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the server's Prometheus metrics.
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
	uploadsGranted  prometheus.Counter
	statusUpdates   *prometheus.CounterVec
	wsSessions      prometheus.Gauge
	pushesDelivered prometheus.Counter
	pushesPruned    prometheus.Counter
}

// NewCollector registers the server metrics on reg and returns the collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperstand_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paperstand_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		uploadsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperstand_upload_grants_total",
			Help: "Direct-upload credentials issued.",
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperstand_paper_status_updates_total",
			Help: "Worker status callbacks applied, by resulting status.",
		}, []string{"status"}),
		wsSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paperstand_ws_sessions",
			Help: "Currently open websocket sessions.",
		}),
		pushesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperstand_ws_pushes_delivered_total",
			Help: "Status frames delivered over websocket.",
		}),
		pushesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperstand_ws_connections_pruned_total",
			Help: "Stale connection rows pruned after a failed push.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.uploadsGranted,
		c.statusUpdates,
		c.wsSessions,
		c.pushesDelivered,
		c.pushesPruned,
	)

	return c
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordUploadGrant() {
	c.uploadsGranted.Inc()
}

func (c *Collector) RecordStatusUpdate(status string) {
	c.statusUpdates.WithLabelValues(status).Inc()
}

func (c *Collector) SessionOpened() { c.wsSessions.Inc() }
func (c *Collector) SessionClosed() { c.wsSessions.Dec() }

func (c *Collector) PushDelivered() { c.pushesDelivered.Inc() }
func (c *Collector) ConnPruned()    { c.pushesPruned.Inc() }

// Handler returns the scrape endpoint handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
