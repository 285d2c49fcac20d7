package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	bridgeMetricsOnce sync.Once
	bridgeRegistry    *BridgeMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record RPC
// route activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total RPC requests segmented by route and outcome.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total RPC errors segmented by route and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "bridge",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bridge",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of RPC requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a request. The status code should be the
// HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// BridgeMetrics tracks engine calls, finalizations and the registry and gate
// gauges.
type BridgeMetrics struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	finalized   *prometheus.CounterVec
	validators  prometheus.Gauge
	operational prometheus.Gauge
}

// NewBridgeMetrics builds the bridge collectors and registers them with reg
// when it is non-nil.
func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Count of bridge entry point calls segmented by operation and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bridge",
			Subsystem: "engine",
			Name:      "call_duration_seconds",
			Help:      "Latency distribution for bridge entry point calls including commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "engine",
			Name:      "finalized_total",
			Help:      "Count of proposals that reached quorum segmented by kind.",
		}, []string{"kind"}),
		validators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bridge",
			Subsystem: "registry",
			Name:      "validators",
			Help:      "Current size of the trusted validator set.",
		}),
		operational: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bridge",
			Subsystem: "gate",
			Name:      "operational",
			Help:      "1 when the bridge accepts gated calls, 0 while paused.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.latency, m.finalized, m.validators, m.operational)
	}
	return m
}

// Bridge returns the process-wide bridge metrics registered with the default
// Prometheus registry.
func Bridge() *BridgeMetrics {
	bridgeMetricsOnce.Do(func() {
		bridgeRegistry = NewBridgeMetrics(prometheus.DefaultRegisterer)
	})
	return bridgeRegistry
}

// ObserveCall records the outcome and latency of one entry point call.
func (m *BridgeMetrics) ObserveCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "committed"
	if err != nil {
		outcome = "rejected"
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFinalized increments the finalization counter for kind.
func (m *BridgeMetrics) RecordFinalized(kind string) {
	if m == nil {
		return
	}
	m.finalized.WithLabelValues(kind).Inc()
}

// SetRegistry updates the validator count and gate gauges.
func (m *BridgeMetrics) SetRegistry(validators uint32, operational bool) {
	if m == nil {
		return
	}
	m.validators.Set(float64(validators))
	if operational {
		m.operational.Set(1)
	} else {
		m.operational.Set(0)
	}
}
