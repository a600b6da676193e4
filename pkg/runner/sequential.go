package runner

import (
	"context"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/model"
)

// SequentialRunner executes nodes one at a time in topological order.
type SequentialRunner struct{}

func NewSequentialRunner() *SequentialRunner {
	return &SequentialRunner{}
}

func (r *SequentialRunner) Run(ctx context.Context, pipe *model.Pipeline, cat *catalog.Catalog, mgr *hooks.Manager, sessionID string) (map[string]any, error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if cat == nil {
		return nil, ErrCatalogMustBeSet
	}
	if mgr == nil {
		mgr = hooks.NewManager()
	}

	preRegistered := registered(cat)

	for _, node := range pipe.Nodes() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if _, err := execNode(ctx, node, cat, mgr, sessionID, false); err != nil {
			return nil, err
		}
	}

	return collectFreeOutputs(ctx, pipe, cat, preRegistered)
}
