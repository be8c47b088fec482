package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	CheckoutSucceeded = "succeeded"
	CheckoutShortage  = "shortage"
	CheckoutEmptyCart = "empty_cart"
	CheckoutFailed    = "failed"
)

// CheckoutMetrics records checkout attempts and the revenue they commit.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	revenue  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout collectors on reg. A nil
// registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkout_revenue_total",
		Help: "Sum of committed order totals.",
	})
	reg.MustRegister(duration, attempts, revenue)
	return &CheckoutMetrics{duration: duration, attempts: attempts, revenue: revenue}
}

// Observe records one checkout attempt.
func (c *CheckoutMetrics) Observe(outcome string, duration time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.attempts.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddRevenue adds a committed order total.
func (c *CheckoutMetrics) AddRevenue(amount float64) {
	if c == nil || c.revenue == nil || amount <= 0 {
		return
	}
	c.revenue.Add(amount)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
