package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations observed via the change broadcast",
		},
		[]string{"type"},
	)

	cartItemCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_cart_item_count",
			Help:    "Cart item count observed after each mutation",
			Buckets: []float64{0, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// ObserveMetrics subscribes a Prometheus exporter to the broadcaster, the
// same way the cart badge consumes it: through Subscribe, with no reference
// to the cart service. Returns the unsubscribe function.
func ObserveMetrics(b *Broadcaster) func() {
	return b.Subscribe(func(c CartChange) {
		mutationType := "updated"
		if c.Cleared {
			mutationType = "cleared"
		}
		cartMutationsTotal.WithLabelValues(mutationType).Inc()
		cartItemCount.Observe(float64(c.ItemCount))
	})
}
