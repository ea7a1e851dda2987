// Package metrics provides helpers for emitting test run lifecycle metrics.
package metrics

import (
	"time"

	obserrors "github.com/openutm/qualifier-host/internal/observability/errors"
	"github.com/openutm/qualifier-host/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// RunMetric captures details about a test run lifecycle event for metric emission.
type RunMetric struct {
	Transition string
	Result     string
	Debug      bool
	Duration   time.Duration
	Err        error
}

// EmitRunLifecycle emits standardised test run lifecycle metrics.
func EmitRunLifecycle(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Debug {
		tags["debug"] = "true"
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("run.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("run.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
