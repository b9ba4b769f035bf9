// Package metrics holds the Prometheus collectors updated by the upload
// coordinator and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Per-file outcome labels.
const (
	OutcomePersisted   = "persisted"
	OutcomeTransport   = "transport_failed"
	OutcomeDirectory   = "directory_invalid"
	OutcomeConstraint  = "constraint_rejected"
	OutcomePersistFail = "persist_failed"
)

var (
	// FilesTotal counts files by terminal outcome.
	FilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileupload_files_total",
			Help: "Uploaded files by terminal outcome",
		},
		[]string{"outcome"},
	)

	// BytesPersisted counts the declared bytes of persisted files.
	BytesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileupload_persisted_bytes_total",
			Help: "Declared size of persisted files in bytes",
		},
	)

	// ConstraintViolationsTotal counts rejections by constraint kind.
	ConstraintViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileupload_constraint_violations_total",
			Help: "Files rejected by a constraint, by constraint kind",
		},
		[]string{"kind"},
	)

	// RequestsTotal counts upload requests by HTTP status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileupload_http_requests_total",
			Help: "Upload HTTP requests by status code",
		},
		[]string{"status"},
	)
)
