// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_processed_total",
			Help: "Total number of tickets processed, by routing action",
		},
		[]string{"action"},
	)

	TicketsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_failed_total",
			Help: "Total number of ticket operations that failed",
		},
		[]string{"operation", "error_code"},
	)

	TicketProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ticket_process_duration_seconds",
			Help: "Duration of ticket operations in seconds",
		},
		[]string{"operation"},
	)

	DraftsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drafts_sent_total",
			Help: "Total number of approved drafts sent via the mail provider",
		},
	)

	MailStagingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_staging_failures_total",
			Help: "Total number of failed attempts to stage an outbound draft",
		},
	)
)
