// Package metrics is the single source of truth for this service's
// Prometheus metric names, labels and help strings. Collectors register
// themselves with the default registry at init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// RecordOpsTotal counts successful record mutations.
// Labels:
//   - entity: "agent", "transaction" or "user"
//   - op: "create", "update", "soft_delete", "hard_delete", "void", ...
var RecordOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_ops_total",
		Help:      "Total number of successful record mutations.",
	},
	[]string{"entity", "op"},
)

// RecordErrorsTotal counts failed record mutations, by entity and op.
var RecordErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_errors_total",
		Help:      "Total number of failed record mutations.",
	},
	[]string{"entity", "op"},
)

// DirectoryCallDuration measures remote user-directory round trips.
// Label:
//   - op: directory operation name (e.g. "create", "disable")
var DirectoryCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "directory_call_duration_seconds",
		Help:      "Duration of remote user-directory calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)
