// Package metrics records fleet operation metrics on a private Prometheus
// registry. The CLI writes the registry to a node-exporter textfile when
// asked to; nothing is served over HTTP.
//
// All Recorder methods are safe to call on a nil *Recorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fleetctl"

// Recorder holds the fleet metric collectors.
type Recorder struct {
	registry *prometheus.Registry

	instancesLaunched  *prometheus.CounterVec
	pollEvaluations    *prometheus.CounterVec
	teardownFailures   *prometheus.CounterVec
	tunnelOperations   *prometheus.CounterVec
	operationsTotal    *prometheus.CounterVec
	operationDurations *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		instancesLaunched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "launch",
				Name:      "instances_total",
				Help:      "Instances that reached the tagged state, by fleet and group",
			},
			[]string{"fleet", "group"},
		),
		pollEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poll",
				Name:      "evaluations_total",
				Help:      "Readiness checks evaluated by bounded polls",
			},
			[]string{"operation"},
		),
		teardownFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "teardown",
				Name:      "failures_total",
				Help:      "Failed teardown steps by category",
			},
			[]string{"fleet", "category"},
		),
		tunnelOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tunnel",
				Name:      "operations_total",
				Help:      "Tunnel create and destroy operations by result",
			},
			[]string{"operation", "result"},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Fleet operations by result",
			},
			[]string{"operation", "result"},
		),
		operationDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of fleet operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
			},
			[]string{"operation"},
		),
	}

	r.registry.MustRegister(
		r.instancesLaunched,
		r.pollEvaluations,
		r.teardownFailures,
		r.tunnelOperations,
		r.operationsTotal,
		r.operationDurations,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// InstancesLaunched counts instances that reached the tagged state.
func (r *Recorder) InstancesLaunched(fleet, group string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.instancesLaunched.WithLabelValues(fleet, group).Add(float64(n))
}

// PollEvaluated counts one readiness check.
func (r *Recorder) PollEvaluated(operation string) {
	if r == nil {
		return
	}
	r.pollEvaluations.WithLabelValues(operation).Inc()
}

// TeardownFailed counts a failed teardown step.
func (r *Recorder) TeardownFailed(fleet, category string) {
	if r == nil {
		return
	}
	r.teardownFailures.WithLabelValues(fleet, category).Inc()
}

// TunnelOperation counts a tunnel create or destroy.
func (r *Recorder) TunnelOperation(operation string, err error) {
	if r == nil {
		return
	}
	r.tunnelOperations.WithLabelValues(operation, result(err)).Inc()
}

// ObserveOperation records the outcome and duration of an operation that
// started at start.
func (r *Recorder) ObserveOperation(operation string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.operationsTotal.WithLabelValues(operation, result(err)).Inc()
	r.operationDurations.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the textfile-collector format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
