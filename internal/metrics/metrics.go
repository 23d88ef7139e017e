package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sneakerzone"

type Metrics struct {
	CartMutations    *prometheus.CounterVec
	CheckoutAttempts *prometheus.CounterVec
	ActiveCarts      prometheus.Gauge
	BackendRequests  *prometheus.HistogramVec
}

// New registers the storefront collectors on reg. Passing a fresh prometheus.NewRegistry keeps
// tests independent of the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations grouped by operation.",
		}, []string{"operation"}),
		CheckoutAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_attempts_total",
			Help:      "Checkout attempts grouped by final state and rejection reason.",
		}, []string{"state", "reason"}),
		ActiveCarts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_carts",
			Help:      "Cart stores currently held in memory.",
		}),
		BackendRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the store backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
	}
	reg.MustRegister(m.CartMutations, m.CheckoutAttempts, m.ActiveCarts, m.BackendRequests)
	return m
}
