package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served by the status feed.",
		},
		[]string{"method", "path", "status"},
	)
	protocolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkctl",
			Subsystem: "protocol",
			Name:      "calls_total",
			Help:      "Printer request/response exchanges by outcome.",
		},
		[]string{"verb", "path", "outcome"},
	)
	protocolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inkctl",
			Subsystem: "protocol",
			Name:      "call_duration_seconds",
			Help:      "Printer exchange duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"verb", "path", "outcome"},
	)
	composeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkctl",
			Subsystem: "compose",
			Name:      "runs_total",
			Help:      "Label composition runs by result and failing stage.",
		},
		[]string{"result", "stage"},
	)
	monitorPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkctl",
			Subsystem: "monitor",
			Name:      "polls_total",
			Help:      "Status polls by outcome.",
		},
		[]string{"outcome"},
	)
)

// Call outcomes used as metric labels.
const (
	OutcomeOK         = "ok"
	OutcomeDevice     = "device_error"
	OutcomeNoResponse = "no_response"
	OutcomeTimeout    = "timeout"
	OutcomeProtocol   = "protocol_error"
	OutcomeConnection = "connection_error"
	OutcomeCanceled   = "canceled"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, protocolCalls, protocolDuration, composeRuns, monitorPolls)
	})
}

func RecordHTTPRequest(method, path string, status int) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, statusLabel(status)).Inc()
}

func RecordProtocolCall(verb, path, outcome string, duration time.Duration) {
	RegisterMetrics()
	protocolCalls.WithLabelValues(verb, path, outcome).Inc()
	protocolDuration.WithLabelValues(verb, path, outcome).Observe(duration.Seconds())
}

func RecordComposeRun(success bool, stage string) {
	RegisterMetrics()
	result := "success"
	if !success {
		result = "failure"
	}
	composeRuns.WithLabelValues(result, stage).Inc()
}

func RecordMonitorPoll(outcome string) {
	RegisterMetrics()
	monitorPolls.WithLabelValues(outcome).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
