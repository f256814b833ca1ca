package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const namespace = "walletledger"

// Metrics holds the balance engine's Prometheus metrics and implements
// usecase.Observer.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	AmountMoved       *prometheus.HistogramVec
	ConflictRetries   *prometheus.CounterVec
	Replays           *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Balance operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of balance operations including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		AmountMoved: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "amount_moved",
				Help:      "Amounts of committed balance operations",
				Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"operation"},
		),
		ConflictRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conflict_retries_total",
				Help:      "Attempts repeated after a concurrent modification",
			},
			[]string{"operation"},
		),
		Replays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_replays_total",
				Help:      "Operations answered from the idempotency store",
			},
			[]string{"operation"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Ops HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Ops HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveOperation records one finished balance operation.
func (m *Metrics) ObserveOperation(operation, outcome string, duration time.Duration, amount domain.Money) {
	m.Operations.WithLabelValues(operation, outcome).Inc()

	// Rejections before any work carry no duration.
	if duration > 0 {
		m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	if outcome == usecase.OutcomeSuccess {
		m.AmountMoved.WithLabelValues(operation).Observe(amount.Decimal().InexactFloat64())
	}
}

// ObserveRetry records a retried attempt.
func (m *Metrics) ObserveRetry(operation string) {
	m.ConflictRetries.WithLabelValues(operation).Inc()
}

// ObserveReplay records a replayed idempotent operation.
func (m *Metrics) ObserveReplay(operation string) {
	m.Replays.WithLabelValues(operation).Inc()
}
