package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collaboration fan-out metrics. Registered once per process on the default
// registry, which fiberprometheus serves at /metrics.
var (
	// Notifications created by type
	notificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})

	// Responses to actionable notifications
	notificationResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_notification_responses_total",
		Help: "Total number of responses to actionable notifications",
	}, []string{"type", "response"}) // response: "accepted" or "declined"

	// Best-effort writes that failed after the primary mutation succeeded
	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_side_effect_failures_total",
		Help: "Total number of failed best-effort side effects by effect",
	}, []string{"effect"})

	// Activity entries appended by type
	activitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_activities_recorded_total",
		Help: "Total number of activity entries recorded by type",
	}, []string{"type"})

	// Orphaned documents removed by the sweep job
	orphansSwept = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_orphans_swept_total",
		Help: "Total number of orphaned documents removed by kind",
	}, []string{"kind"})
)
