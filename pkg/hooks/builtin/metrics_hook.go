package builtin

import (
	"context"
	"reflect"

	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/metrics"
)

// MetricsHook times every node run under the node's short name, records a
// size gauge per input dataset and counts completed pipeline runs.
type MetricsHook struct {
	Registry *metrics.Registry
}

func NewMetricsHook(reg *metrics.Registry) *MetricsHook {
	return &MetricsHook{Registry: reg}
}

func (h *MetricsHook) BeforeNodeRun(_ context.Context, event *hooks.NodeRun) (hooks.Overrides, error) {
	h.Registry.StartTimer(event.Node.ShortName())
	for name, value := range event.Inputs {
		h.Registry.SetGauge("input_size."+name, float64(sizeOf(value)))
	}

	return nil, nil
}

func (h *MetricsHook) AfterNodeRun(_ context.Context, event *hooks.NodeRunEnded) error {
	h.Registry.StopTimer(event.Node.ShortName())

	return nil
}

func (h *MetricsHook) AfterPipelineRun(_ context.Context, _ *hooks.PipelineRun) error {
	h.Registry.AddCounter("pipeline_runs", 1)

	return nil
}

// sizeOf reports the length of collection-like values and 1 for anything
// else.
func sizeOf(value any) int {
	if value == nil {
		return 0
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return v.Len()
	default:
		return 1
	}
}

var (
	_ hooks.BeforeNodeRunHook    = (*MetricsHook)(nil)
	_ hooks.AfterNodeRunHook     = (*MetricsHook)(nil)
	_ hooks.AfterPipelineRunHook = (*MetricsHook)(nil)
)
