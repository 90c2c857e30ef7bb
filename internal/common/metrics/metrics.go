// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification records created",
		},
		[]string{"type", "base"},
	)

	NotificationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_status_transitions_total",
			Help: "Total number of committed status transitions",
		},
		[]string{"to_status"},
	)

	NotificationTransitionRejects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_transition_rejects_total",
			Help: "Total number of rejected status transitions",
		},
		[]string{"reason"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications dispatched per channel",
		},
		[]string{"channel", "status"},
	)

	NotificationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_expired_total",
			Help: "Total number of notifications expired by the sweeper",
		},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
