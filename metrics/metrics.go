package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydrogen",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total GraphQL requests sent to the remote platform",
		},
		[]string{"operation", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hydrogen",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "GraphQL request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydrogen",
			Subsystem: "upload",
			Name:      "total",
			Help:      "Staged uploads by registered content type and outcome",
		},
		[]string{"content_type", "status"},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hydrogen",
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Total bytes transferred to staged targets",
		},
	)

	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydrogen",
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconciliation runs by outcome",
		},
		[]string{"status"},
	)

	ReconcileRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydrogen",
			Subsystem: "reconcile",
			Name:      "records_total",
			Help:      "Pending records processed by outcome (resolved, unresolved, failed)",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hydrogen",
			Subsystem: "notify",
			Name:      "events_total",
			Help:      "Notifications delivered to subscribers",
		},
		[]string{"subscriber", "status"},
	)
)
