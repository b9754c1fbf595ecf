package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказа.
type OrderMetrics struct {
	// Счётчики операций
	checkouts  prometheus.Counter
	validated  prometheus.Counter
	paid       prometheus.Counter
	shipped    prometheus.Counter
	delivered  prometheus.Counter
	cancelled  prometheus.Counter
	refunded   prometheus.Counter
	declined   prometheus.Counter
	opFailures prometheus.Counter

	// Гистограммы времени выполнения
	gatewayDuration    prometheus.Histogram
	transitionDuration *prometheus.HistogramVec

	// Счётчики событий timeline/outbox
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	// Gauge открытых (не достигших конечного статуса) заказов
	openOrders prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик заказа.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		checkouts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_checked_out_total",
			Help: "Total number of orders created from carts",
		}),
		validated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_validated_total",
			Help: "Total number of orders validated by back office",
		}),
		paid: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_paid_total",
			Help: "Total number of successfully paid orders",
		}),
		shipped: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_shipped_total",
			Help: "Total number of shipped orders",
		}),
		delivered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_delivered_total",
			Help: "Total number of delivered orders",
		}),
		cancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_cancelled_total",
			Help: "Total number of cancelled orders",
		}),
		refunded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_refunded_total",
			Help: "Total number of refunded orders",
		}),
		declined: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_payments_declined_total",
			Help: "Total number of declined payment attempts",
		}),
		opFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_order_operations_failed_total",
			Help: "Total number of failed order lifecycle operations",
		}),
		gatewayDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_payment_gateway_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		transitionDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_order_transition_duration_seconds",
			Help:    "Duration of order status transitions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"event"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		openOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_open_orders",
			Help: "Number of orders that have not reached a terminal status",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckout увеличивает счётчик оформленных заказов.
func (m *OrderMetrics) RecordCheckout() {
	m.checkouts.Inc()
	m.openOrders.Inc()
}

// RecordValidated увеличивает счётчик подтверждённых заказов.
func (m *OrderMetrics) RecordValidated() {
	m.validated.Inc()
}

// RecordPaid увеличивает счётчик оплаченных заказов.
func (m *OrderMetrics) RecordPaid() {
	m.paid.Inc()
}

// RecordShipped увеличивает счётчик отгруженных заказов.
func (m *OrderMetrics) RecordShipped() {
	m.shipped.Inc()
}

// RecordDelivered увеличивает счётчик доставленных заказов и закрывает заказ.
func (m *OrderMetrics) RecordDelivered() {
	m.delivered.Inc()
	m.openOrders.Dec()
}

// RecordCancelled увеличивает счётчик отменённых заказов и закрывает заказ.
func (m *OrderMetrics) RecordCancelled() {
	m.cancelled.Inc()
	m.openOrders.Dec()
}

// RecordRefunded увеличивает счётчик возвращённых заказов.
func (m *OrderMetrics) RecordRefunded() {
	m.refunded.Inc()
}

// RecordDeclined увеличивает счётчик отклонённых платежей.
func (m *OrderMetrics) RecordDeclined() {
	m.declined.Inc()
}

// RecordOperationFailed увеличивает счётчик неудачных операций.
func (m *OrderMetrics) RecordOperationFailed() {
	m.opFailures.Inc()
}

// RecordGatewayDuration записывает длительность обращения к провайдеру.
func (m *OrderMetrics) RecordGatewayDuration(duration time.Duration) {
	m.gatewayDuration.Observe(duration.Seconds())
}

// RecordTransitionDuration записывает длительность перехода статуса.
func (m *OrderMetrics) RecordTransitionDuration(event string, duration time.Duration) {
	m.transitionDuration.WithLabelValues(event).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
