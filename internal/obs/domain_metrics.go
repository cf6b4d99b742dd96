package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersPlacedTotal counts checkout attempts by outcome.
	OrdersPlacedTotal *prometheus.CounterVec
	// OrderValue observes placed order totals in store currency units.
	OrderValue *prometheus.HistogramVec
	// CartMutationsTotal counts cart writes by operation and outcome.
	CartMutationsTotal *prometheus.CounterVec
	// PricePreviewsTotal counts variant price previews by outcome.
	PricePreviewsTotal *prometheus.CounterVec
	// NotificationsCreatedTotal counts merchant notifications by type.
	NotificationsCreatedTotal *prometheus.CounterVec
	// TasksEnqueuedTotal counts background task enqueue outcomes.
	TasksEnqueuedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"})
		OrderValue = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Distribution of placed order totals.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"currency"})
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart writes by operation and outcome.",
		}, []string{"op", "result"})
		PricePreviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_previews_total",
			Help:      "Count of variant price previews by outcome.",
		}, []string{"result"})
		NotificationsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Count of merchant notifications created by type.",
		}, []string{"type"})
		TasksEnqueuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_enqueued_total",
			Help:      "Count of background task enqueue outcomes.",
		}, []string{"task", "result"})

		mustRegisterCollector(reg, OrdersPlacedTotal, reuseCounterVec(&OrdersPlacedTotal))
		mustRegisterCollector(reg, OrderValue, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				OrderValue = v
			}
		})
		mustRegisterCollector(reg, CartMutationsTotal, reuseCounterVec(&CartMutationsTotal))
		mustRegisterCollector(reg, PricePreviewsTotal, reuseCounterVec(&PricePreviewsTotal))
		mustRegisterCollector(reg, NotificationsCreatedTotal, reuseCounterVec(&NotificationsCreatedTotal))
		mustRegisterCollector(reg, TasksEnqueuedTotal, reuseCounterVec(&TasksEnqueuedTotal))
	})
}

func reuseCounterVec(dst **prometheus.CounterVec) func(prometheus.Collector) {
	return func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			*dst = v
		}
	}
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

// CountOutcome increments vec for the given labels when metrics are registered.
// The last label is "ok" when err is nil and "error" otherwise.
func CountOutcome(vec *prometheus.CounterVec, err error, labels ...string) {
	if vec == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	vec.WithLabelValues(append(labels, result)...).Inc()
}
