package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics groups Prometheus collectors describing priced checkouts.
type QuoteMetrics struct {
	// QuotesTotal counts priced cart items by shape and outcome.
	QuotesTotal *prometheus.CounterVec
	// QuoteAmount records quoted cart totals in minor units.
	QuoteAmount prometheus.Histogram
	// UnresolvedLines counts sub-lines that could not be priced.
	UnresolvedLines *prometheus.CounterVec
}

var (
	quoteOnce    sync.Once
	quoteMetrics *QuoteMetrics
)

// MustRegisterQuoteMetrics initialises and registers checkout collectors once per process.
func MustRegisterQuoteMetrics(namespace string, reg prometheus.Registerer) *QuoteMetrics {
	quoteOnce.Do(func() {
		quoteMetrics = NewQuoteMetrics(namespace, reg)
	})
	return quoteMetrics
}

// NewQuoteMetrics registers a fresh set of checkout collectors, reusing any that are
// already registered under the same names.
func NewQuoteMetrics(namespace string, reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &QuoteMetrics{
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of priced cart items by shape and outcome.",
		}, []string{"shape", "result"}),
		QuoteAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_amount_cents",
			Help:      "Distribution of quoted cart totals in minor units.",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 8),
		}),
		UnresolvedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_lines_total",
			Help:      "Number of sub-lines that could not be priced from the supplied catalog.",
		}, []string{"shape"}),
	}
	mustRegisterCollector(reg, m.QuotesTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.QuotesTotal = v
		}
	})
	mustRegisterCollector(reg, m.QuoteAmount, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Histogram); ok {
			m.QuoteAmount = v
		}
	})
	mustRegisterCollector(reg, m.UnresolvedLines, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.UnresolvedLines = v
		}
	})
	return m
}

// ObserveItem records the outcome of pricing one cart item.
func (m *QuoteMetrics) ObserveItem(shape string, unresolved int) {
	if m == nil {
		return
	}
	result := "priced"
	if unresolved > 0 {
		result = "partial"
		m.UnresolvedLines.WithLabelValues(shape).Add(float64(unresolved))
	}
	m.QuotesTotal.WithLabelValues(shape, result).Inc()
}

// ObserveTotal records a quoted cart total.
func (m *QuoteMetrics) ObserveTotal(cents int64) {
	if m == nil {
		return
	}
	m.QuoteAmount.Observe(float64(cents))
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
