// Package metrics collects Prometheus metrics for the HTTP layer, service
// mutations, recommendations and the change feed.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the slice of metrics the service layer and change feed report to.
type Recorder interface {
	RecordMutation(op, outcome string)
	ObserveRecommendation(d time.Duration, returned int)
	SubscriberAdded()
	SubscriberRemoved()
	RecordPublish(kind string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	recommendations prometheus.Histogram
	recommendedSize prometheus.Histogram
	subscribers     prometheus.Gauge
	published       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studysync_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studysync_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studysync_mutations_total",
			Help: "Service mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		recommendations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studysync_recommendation_duration_seconds",
			Help:    "Time to compute group recommendations.",
			Buckets: prometheus.DefBuckets,
		}),
		recommendedSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studysync_recommendation_results",
			Help:    "Number of groups returned per recommendation.",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "studysync_changefeed_subscribers",
			Help: "Open change-feed subscriptions.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studysync_changefeed_published_total",
			Help: "Change events published by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.mutations,
		c.recommendations,
		c.recommendedSize,
		c.subscribers,
		c.published,
	)
	return c
}

func (c *Collector) RecordMutation(op, outcome string) {
	c.mutations.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) ObserveRecommendation(d time.Duration, returned int) {
	c.recommendations.Observe(d.Seconds())
	c.recommendedSize.Observe(float64(returned))
}

func (c *Collector) SubscriberAdded()   { c.subscribers.Inc() }
func (c *Collector) SubscriberRemoved() { c.subscribers.Dec() }

func (c *Collector) RecordPublish(kind string) {
	c.published.WithLabelValues(kind).Inc()
}

// Middleware records request counts and latency keyed by chi route pattern,
// so ids in paths do not explode label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used when metrics are not wired, and in tests.
type Nop struct{}

func (Nop) RecordMutation(string, string)            {}
func (Nop) ObserveRecommendation(time.Duration, int) {}
func (Nop) SubscriberAdded()                         {}
func (Nop) SubscriberRemoved()                       {}
func (Nop) RecordPublish(string)                     {}
