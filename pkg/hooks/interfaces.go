// Package hooks defines the lifecycle events a pipeline run emits and the
// registry dispatching them to registered hook implementations.
//
// A hook implementation is any value satisfying one or more of the
// capability interfaces below. The manager inspects each registered value
// at dispatch time and invokes only the handlers it actually provides, so
// implementations never carry empty stubs for events they do not care
// about.
package hooks

import "context"

// Overrides maps input dataset names to replacement values returned by a
// before-node-run handler. The keys must be a subset of the node's
// declared inputs; the replacement applies to that execution only and the
// catalog entries stay untouched.
type Overrides map[string]any

type AfterCatalogCreatedHook interface {
	AfterCatalogCreated(ctx context.Context, event *CatalogCreated) error
}

type BeforePipelineRunHook interface {
	BeforePipelineRun(ctx context.Context, event *PipelineRun) error
}

type AfterPipelineRunHook interface {
	AfterPipelineRun(ctx context.Context, event *PipelineRun) error
}

type PipelineErrorHook interface {
	OnPipelineError(ctx context.Context, event *PipelineError) error
}

type BeforeNodeRunHook interface {
	// BeforeNodeRun may return replacement values for some of the
	// node's inputs. A nil map means no replacement.
	BeforeNodeRun(ctx context.Context, event *NodeRun) (Overrides, error)
}

type AfterNodeRunHook interface {
	AfterNodeRun(ctx context.Context, event *NodeRunEnded) error
}

type NodeErrorHook interface {
	OnNodeError(ctx context.Context, event *NodeError) error
}

type BeforeDataSetLoadedHook interface {
	BeforeDataSetLoaded(ctx context.Context, event *DataSetEvent) error
}

type AfterDataSetLoadedHook interface {
	AfterDataSetLoaded(ctx context.Context, event *DataSetEvent) error
}

type BeforeDataSetSavedHook interface {
	BeforeDataSetSaved(ctx context.Context, event *DataSetEvent) error
}

type AfterDataSetSavedHook interface {
	AfterDataSetSaved(ctx context.Context, event *DataSetEvent) error
}

type BeforeCommandRunHook interface {
	BeforeCommandRun(ctx context.Context, event *CommandRun) error
}
