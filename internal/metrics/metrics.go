package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes used as label values.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeVerify  = "verify"
	OutcomeFault   = "fault"
)

// Push request stages.
const (
	StageToken = "token"
	StageSend  = "send"
)

var (
	once sync.Once

	activationsStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "findphone_activations_stored_total",
			Help: "Activation records written to object storage.",
		},
	)

	lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findphone_lookups_total",
			Help: "Lookup invocations by request variant and outcome.",
		},
		[]string{"variant", "outcome"},
	)

	pushRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findphone_push_requests_total",
			Help: "Calls to the push provider by stage (token/send) and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	auditLogFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "findphone_audit_log_failures_total",
			Help: "Raw event audit writes that failed and were suppressed.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(activationsStored, lookups, pushRequests, auditLogFailures)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IncActivationStored counts an activation record written to storage.
func IncActivationStored() {
	activationsStored.Inc()
}

// IncLookup counts a finished lookup by request variant and outcome.
func IncLookup(variant, outcome string) {
	lookups.WithLabelValues(norm(variant), norm(outcome)).Inc()
}

// IncPushRequest counts one call to the push provider at the given stage.
func IncPushRequest(stage string, success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFault
	}
	pushRequests.WithLabelValues(norm(stage), outcome).Inc()
}

// IncAuditLogFailure counts a request log that could not be saved.
func IncAuditLogFailure() {
	auditLogFailures.Inc()
}
