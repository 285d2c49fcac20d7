package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"bridgechain/core/events"
)

func TestBridgeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)

	m.ObserveCall("approve", nil, time.Millisecond)
	m.ObserveCall("approve", errors.New("boom"), time.Millisecond)
	m.ObserveCall("approve", nil, time.Millisecond)
	m.RecordFinalized("transfer")
	m.SetRegistry(3, false)

	require.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("approve", "committed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("approve", "rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.finalized.WithLabelValues("transfer")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.validators))
	require.Equal(t, 0.0, testutil.ToFloat64(m.operational))

	m.SetRegistry(4, true)
	require.Equal(t, 1.0, testutil.ToFloat64(m.operational))

	var nilMetrics *BridgeMetrics
	nilMetrics.ObserveCall("approve", nil, 0)
	nilMetrics.RecordFinalized("transfer")
	nilMetrics.SetRegistry(1, true)
}

func TestEventMetricsEmitter(t *testing.T) {
	m := Events()
	before := testutil.ToFloat64(m.emitted.WithLabelValues(events.TypeBridgeMinted))
	var emitter events.Emitter = m
	emitter.Emit(events.BridgeMinted{})
	emitter.Emit(nil)
	require.Equal(t, before+1, testutil.ToFloat64(m.emitted.WithLabelValues(events.TypeBridgeMinted)))
}

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	before := testutil.ToFloat64(m.errors.WithLabelValues("bridge", "approve", "403"))
	m.Observe("bridge", "approve", 403, time.Millisecond)
	m.RecordThrottle("bridge", "")
	require.Equal(t, before+1, testutil.ToFloat64(m.errors.WithLabelValues("bridge", "approve", "403")))
}
