package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compilestrength_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UsageIncrementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_usage_increments_total",
			Help: "Usage counter increments by kind and result",
		},
		[]string{"kind", "result"},
	)

	QuotaDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_quota_denials_total",
			Help: "Actions rejected because the period quota was used up",
		},
		[]string{"kind"},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_tool_calls_total",
			Help: "Model tool invocations by tool and status",
		},
		[]string{"tool", "status"},
	)

	AgentSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compilestrength_agent_steps",
			Help:    "Model round trips per chat request",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	ModelErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_model_errors_total",
			Help: "Upstream model failures",
		},
		[]string{"stage"},
	)

	RoutineSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_routine_saves_total",
			Help: "Routine persistence attempts by result",
		},
		[]string{"result"},
	)

	WorkoutSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_workout_sessions_total",
			Help: "Workout session lifecycle events",
		},
		[]string{"event"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "compilestrength_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	SubscriptionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compilestrength_subscription_events_total",
			Help: "Billing webhook events by name and result",
		},
		[]string{"event", "result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordUsageIncrement(kind, result string) {
	UsageIncrementsTotal.WithLabelValues(kind, result).Inc()
}

func RecordQuotaDenial(kind string) {
	QuotaDenialsTotal.WithLabelValues(kind).Inc()
}

func RecordToolCall(tool, status string) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

func RecordAgentSteps(steps int) {
	AgentSteps.Observe(float64(steps))
}

func RecordModelError(stage string) {
	ModelErrorsTotal.WithLabelValues(stage).Inc()
}

func RecordRoutineSave(result string) {
	RoutineSavesTotal.WithLabelValues(result).Inc()
}

func RecordWorkoutSession(event string) {
	WorkoutSessionsTotal.WithLabelValues(event).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordSubscriptionEvent(event, result string) {
	SubscriptionEventsTotal.WithLabelValues(event, result).Inc()
}
