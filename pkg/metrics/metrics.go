// Package metrics exposes Prometheus counters for notification delivery.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts delivery outcomes. The zero value is not usable; use New.
type Recorder struct {
	registry   *prometheus.Registry
	delivered  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	suppressed *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notifications accepted by a channel provider.",
		}, []string{"platform", "category"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notification attempts rejected by a channel provider.",
		}, []string{"platform", "category"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Notification attempts blocked by delivery policy.",
		}, []string{"platform", "category"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_fallback_total",
			Help: "Critical notifications redirected to email.",
		}, []string{"category"}),
	}
	r.registry.MustRegister(r.delivered, r.failed, r.suppressed, r.fallbacks)
	return r
}

func (r *Recorder) Delivered(platform, category string) {
	r.delivered.WithLabelValues(platform, category).Inc()
}

func (r *Recorder) Failed(platform, category string) {
	r.failed.WithLabelValues(platform, category).Inc()
}

func (r *Recorder) Suppressed(platform, category string) {
	r.suppressed.WithLabelValues(platform, category).Inc()
}

func (r *Recorder) Fallback(category string) {
	r.fallbacks.WithLabelValues(category).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
