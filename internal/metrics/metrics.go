// Package metrics exports subscriber queue activity as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/nodekit/internal/event"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "nodekit"

// Metrics implements event.Observer with Prometheus collectors.
type Metrics struct {
	queued    *prometheus.CounterVec
	delivered *prometheus.CounterVec
	handlers  *prometheus.CounterVec
	unrouted  *prometheus.CounterVec
	depth     prometheus.Histogram
}

var _ event.Observer = (*Metrics)(nil)

// Option configures Metrics.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithDepthBuckets sets the queue depth histogram buckets.
func WithDepthBuckets(b []float64) Option {
	return func(o *options) { o.buckets = b }
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer, opts ...Option) (*Metrics, error) {
	o := options{
		namespace: DefaultNamespace,
		buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Metrics{
		queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "events_queued_total",
			Help:      "Events captured by subscribers.",
		}, []string{"event"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "events_delivered_total",
			Help:      "Events routed to at least one handler.",
		}, []string{"event", "role"}),
		handlers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "handler_invocations_total",
			Help:      "Handler invocations.",
		}, []string{"event"}),
		unrouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "events_unrouted_total",
			Help:      "Events dropped because no handler matched.",
		}, []string{"event"}),
		depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "event_queue_depth",
			Help:      "Subscriber queue depth after each capture.",
			Buckets:   o.buckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.queued, m.delivered, m.handlers, m.unrouted, m.depth} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}

// EventQueued implements event.Observer.
func (m *Metrics) EventQueued(name string, pending int) {
	m.queued.WithLabelValues(name).Inc()
	m.depth.Observe(float64(pending))
}

// EventDelivered implements event.Observer.
func (m *Metrics) EventDelivered(name, role string, handlers int) {
	m.delivered.WithLabelValues(name, role).Inc()
	m.handlers.WithLabelValues(name).Add(float64(handlers))
}

// EventUnrouted implements event.Observer.
func (m *Metrics) EventUnrouted(name string) {
	m.unrouted.WithLabelValues(name).Inc()
}
