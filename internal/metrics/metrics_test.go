package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordScriptExecution(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(ScriptExecutionsTotal.WithLabelValues("timeout"))
	signalsBefore := testutil.ToFloat64(ScriptSignalsTotal)

	RecordScriptExecution("timeout", 0, 5*time.Second)
	RecordScriptExecution("success", 4, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(ScriptExecutionsTotal.WithLabelValues("timeout")))
	assert.Equal(t, signalsBefore+4, testutil.ToFloat64(ScriptSignalsTotal))
}

func TestRecordBacktestRun(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name       string
		liquidated bool
		delta      float64
	}{
		{name: "normal run", liquidated: false, delta: 0},
		{name: "liquidated run", liquidated: true, delta: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(BacktestLiquidationsTotal)
			RecordBacktestRun("success", tt.liquidated, time.Millisecond)
			assert.Equal(t, before+tt.delta, testutil.ToFloat64(BacktestLiquidationsTotal))
		})
	}
}

func TestRecordCombination(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(OptimizerCombinationsTotal.WithLabelValues("failed"))

	RecordCombination("failed")
	RecordOptimizerRun(2 * time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(OptimizerCombinationsTotal.WithLabelValues("failed")))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordCombination("ok")

	handler := Handler()
	assert.Implements(t, (*http.Handler)(nil), handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scriptlab_optimizer_combinations_total")
}
