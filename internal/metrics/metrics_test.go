package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.InstancesLaunched("astro", "cpu", 3)
	r.InstancesLaunched("astro", "cpu", 0)
	r.PollEvaluated("terminate")
	r.PollEvaluated("terminate")
	r.TeardownFailed("astro", "volumes")
	r.TunnelOperation("create", nil)
	r.TunnelOperation("create", errors.New("port in use"))

	assert.Equal(t, 3.0, testutil.ToFloat64(r.instancesLaunched.WithLabelValues("astro", "cpu")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.pollEvaluations.WithLabelValues("terminate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.teardownFailures.WithLabelValues("astro", "volumes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tunnelOperations.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tunnelOperations.WithLabelValues("create", "error")))
}

func TestRecorder_ObserveOperation(t *testing.T) {
	r := NewRecorder()

	r.ObserveOperation("init", time.Now().Add(-2*time.Second), nil)
	r.ObserveOperation("init", time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.operationsTotal.WithLabelValues("init", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operationsTotal.WithLabelValues("init", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.operationDurations))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.InstancesLaunched("astro", "cpu", 1)
		r.PollEvaluated("x")
		r.TeardownFailed("astro", "volumes")
		r.TunnelOperation("create", nil)
		r.ObserveOperation("init", time.Now(), nil)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.InstancesLaunched("astro", "gpu", 2)

	path := filepath.Join(t.TempDir(), "fleetctl.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fleetctl_launch_instances_total{fleet="astro",group="gpu"} 2`)
}
