// Package metrics exposes Prometheus collectors for registries, the thing
// link manager and event publishing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-links/internal/event"
)

const namespace = "graylogic"

// Metrics holds the collectors and the registry they are registered with.
// It implements provider.Metrics and link.ManagerMetrics.
type Metrics struct {
	registry *prometheus.Registry

	RegistryNotifications *prometheus.CounterVec
	Providers             *prometheus.GaugeVec
	EventsPosted          *prometheus.CounterVec
	HandlerFailures       *prometheus.CounterVec
	AutoLinks             *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RegistryNotifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "notifications_total",
				Help:      "Registry change notifications by registry and kind",
			},
			[]string{"registry", "kind"},
		),

		Providers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "providers",
				Help:      "Providers registered per registry",
			},
			[]string{"registry"},
		),

		EventsPosted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "posted_total",
				Help:      "Events posted by type",
			},
			[]string{"type"},
		),

		HandlerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "links",
				Name:      "handler_failures_total",
				Help:      "Thing handler link callbacks that failed or panicked",
			},
			[]string{"thing"},
		),

		AutoLinks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "links",
				Name:      "auto_links_total",
				Help:      "Default item-channel links created or removed",
			},
			[]string{"action"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RegistryNotifications,
		m.Providers,
		m.EventsPosted,
		m.HandlerFailures,
		m.AutoLinks,
	)
	return m
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RegistryNotification implements provider.Metrics.
func (m *Metrics) RegistryNotification(registry, kind string) {
	m.RegistryNotifications.WithLabelValues(registry, kind).Inc()
}

// ProviderCount implements provider.Metrics.
func (m *Metrics) ProviderCount(registry string, n int) {
	m.Providers.WithLabelValues(registry).Set(float64(n))
}

// AutoLink implements link.ManagerMetrics.
func (m *Metrics) AutoLink(action string) {
	m.AutoLinks.WithLabelValues(action).Inc()
}

// HandlerFailure implements link.ManagerMetrics.
func (m *Metrics) HandlerFailure(thingUID string) {
	m.HandlerFailures.WithLabelValues(thingUID).Inc()
}

// Publisher counts events by type before passing them to next.
func (m *Metrics) Publisher(next event.Publisher) event.Publisher {
	return event.PublisherFunc(func(e event.Event) {
		m.EventsPosted.WithLabelValues(e.Type).Inc()
		next.Post(e)
	})
}
