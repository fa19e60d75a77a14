package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry row outcomes
const (
	OutcomeMatched  = "matched"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	TelemetryRows      *prometheus.CounterVec
	RecordsBlocked     prometheus.Counter
	CalculationsSaved  *prometheus.CounterVec
	DailyEntriesZeroed prometheus.Counter
	SyncItems          *prometheus.CounterVec
	AuditFailures      prometheus.Counter
	OperationTime      *prometheus.HistogramVec
	ErrorsCount        *prometheus.CounterVec
}

// NewMetricsWith creates the service metrics on the given registerer
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TelemetryRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_rows_total",
			Help:      "Telemetry rows processed by outcome",
		}, []string{"outcome"}),
		RecordsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staging_records_blocked_total",
			Help:      "Staging records zeroed by an absence period",
		}),
		CalculationsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_saved_total",
			Help:      "Calculations persisted by mode",
		}, []string{"mode"}),
		DailyEntriesZeroed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_entries_zeroed_total",
			Help:      "Persisted daily entries zeroed after a retroactive absence",
		}),
		SyncItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_sync_items_total",
			Help:      "Master-data sync items by kind and result",
		}, []string{"kind", "result"}),
		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit entries that could not be written",
		}),
		OperationTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time taken by pipeline operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
