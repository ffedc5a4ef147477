package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// CheckoutMetrics 结算与库存相关指标，nil 接收者安全
type CheckoutMetrics struct {
	checkouts    *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	reservations *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

// NewCheckoutMetrics 在给定注册器上注册指标，reg 为空时返回空实现
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts partitioned by result kind.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout units of work in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_operations_total",
		Help:      "Stock ledger operations partitioned by operation.",
	}, []string{"operation"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status transitions partitioned by target status.",
	}, []string{"to"})
	reg.MustRegister(checkouts, duration, reservations, transitions)
	return &CheckoutMetrics{
		checkouts:    checkouts,
		duration:     duration,
		reservations: reservations,
		transitions:  transitions,
	}
}

// ObserveCheckout 记录一次结算结果与耗时
func (m *CheckoutMetrics) ObserveCheckout(result string, elapsed time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	label := normalizeLabel(result)
	m.checkouts.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// AddStockOperation 记录库存操作数量
func (m *CheckoutMetrics) AddStockOperation(operation string, units int) {
	if m == nil || m.reservations == nil || units <= 0 {
		return
	}
	m.reservations.WithLabelValues(normalizeLabel(operation)).Add(float64(units))
}

// IncTransition 记录订单状态流转
func (m *CheckoutMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
