package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records cart and order activity counters.
type CommerceMetrics struct {
	cartOps       *prometheus.CounterVec
	ordersCreated *prometheus.CounterVec
	mergedLines   prometheus.Counter
}

// NewCommerceMetrics registers the commerce metrics on the provided
// registerer. A nil registerer yields a no-op recorder, which keeps tests
// and secondary binaries free of global registry state.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created by payment status.",
	}, []string{"payment_status"})
	mergedLines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guest_cart_lines_merged_total",
		Help: "Guest cart lines merged into user carts.",
	})
	reg.MustRegister(cartOps, ordersCreated, mergedLines)
	return &CommerceMetrics{
		cartOps:       cartOps,
		ordersCreated: ordersCreated,
		mergedLines:   mergedLines,
	}
}

// IncCartOp counts one cart mutation.
func (m *CommerceMetrics) IncCartOp(operation string, success bool) {
	if m == nil || m.cartOps == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.cartOps.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}

// IncOrderCreated counts one created order.
func (m *CommerceMetrics) IncOrderCreated(paymentStatus string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentStatus)).Inc()
}

// AddMergedLines counts guest cart lines merged into a user cart.
func (m *CommerceMetrics) AddMergedLines(n int) {
	if m == nil || m.mergedLines == nil || n <= 0 {
		return
	}
	m.mergedLines.Add(float64(n))
}

func normalizeLabel(value string) string {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return "unknown"
	}
	return v
}
