// Package metrics records verification counters and latencies.
package metrics

import "time"

// Recorder receives event counts and operation latencies. Labels are
// free-form; implementations pick the ones they export.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Label keys understood by PrometheusRecorder.
const (
	LabelNetwork = "network"
	LabelOutcome = "outcome"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

// NoopRecorder drops everything. It is the default when metrics are disabled.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(string, map[string]string)                    {}
func (NoopRecorder) ObserveLatency(string, time.Duration, map[string]string) {}
