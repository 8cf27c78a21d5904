package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts the money-bearing paths of the checkout core.
type CheckoutMetrics struct {
	Dispatches         *prometheus.CounterVec
	Reconciliations    *prometheus.CounterVec
	DuplicateCallbacks prometheus.Counter
	CartClears         prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haatbazar",
		Subsystem: "checkout",
		Name:      "gateway_dispatches_total",
		Help:      "Payment gateway dispatches by method and outcome.",
	}, []string{"method", "outcome"})

	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "haatbazar",
		Subsystem: "checkout",
		Name:      "reconciliations_total",
		Help:      "Callback reconciliations by outcome.",
	}, []string{"outcome"})

	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "haatbazar",
		Subsystem: "checkout",
		Name:      "duplicate_callbacks_total",
		Help:      "Callbacks that arrived for an already-paid transaction.",
	})

	cartClears := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "haatbazar",
		Subsystem: "checkout",
		Name:      "cart_clears_total",
		Help:      "Cart-clear side effects fired after a confirmed payment.",
	})

	reg.MustRegister(dispatches, reconciliations, duplicates, cartClears)
	return &CheckoutMetrics{
		Dispatches:         dispatches,
		Reconciliations:    reconciliations,
		DuplicateCallbacks: duplicates,
		CartClears:         cartClears,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
