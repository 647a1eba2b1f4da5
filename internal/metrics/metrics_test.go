package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/chat", "200", 0.1)
	RecordHTTPRequest("POST", "/api/chat", "200", 0.2)
	RecordHTTPRequest("POST", "/api/chat", "402", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/chat", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/chat", "402")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordUsage(t *testing.T) {
	UsageIncrementsTotal.Reset()
	QuotaDenialsTotal.Reset()

	RecordUsageIncrement("compile", "ok")
	RecordUsageIncrement("compile", "quota_exceeded")
	RecordQuotaDenial("compile")

	assert.Equal(t, float64(1), testutil.ToFloat64(UsageIncrementsTotal.WithLabelValues("compile", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(UsageIncrementsTotal.WithLabelValues("compile", "quota_exceeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(QuotaDenialsTotal.WithLabelValues("compile")))
}

func TestRecordToolCall(t *testing.T) {
	ToolCallsTotal.Reset()

	RecordToolCall("createWorkoutRoutine", "ok")
	RecordToolCall("createWorkoutRoutine", "invalid_input")
	RecordToolCall("createWorkoutRoutine", "ok")

	assert.Equal(t, float64(2), testutil.ToFloat64(ToolCallsTotal.WithLabelValues("createWorkoutRoutine", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ToolCallsTotal.WithLabelValues("createWorkoutRoutine", "invalid_input")))
}

func TestRecordRoutineSave(t *testing.T) {
	RoutineSavesTotal.Reset()

	RecordRoutineSave("created")
	RecordRoutineSave("existing")

	assert.Equal(t, float64(1), testutil.ToFloat64(RoutineSavesTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(RoutineSavesTotal.WithLabelValues("existing")))
}

func TestRecordEmail(t *testing.T) {
	EmailsSentTotal.Reset()

	RecordEmail("program_ready", "queued")
	RecordEmail("program_ready", "sent")
	RecordEmail("welcome", "failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("program_ready", "queued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("welcome", "failed")))
}

func TestRecordSubscriptionEvent(t *testing.T) {
	SubscriptionEventsTotal.Reset()

	RecordSubscriptionEvent("subscription_created", "applied")
	RecordSubscriptionEvent("order_created", "ignored")

	assert.Equal(t, float64(1), testutil.ToFloat64(SubscriptionEventsTotal.WithLabelValues("subscription_created", "applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SubscriptionEventsTotal.WithLabelValues("order_created", "ignored")))
}

func TestAgentStepsAndModelErrors(t *testing.T) {
	ModelErrorsTotal.Reset()

	RecordAgentSteps(3)
	RecordModelError("stream_open")

	assert.Equal(t, 1, testutil.CollectAndCount(AgentSteps))
	assert.Equal(t, float64(1), testutil.ToFloat64(ModelErrorsTotal.WithLabelValues("stream_open")))
}
