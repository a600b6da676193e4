// Package runner executes pipelines against a data catalog, emitting the
// lifecycle events hooks subscribe to.
package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/model"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrCatalogMustBeSet  = errors.New("catalog must be set")
)

// Runner executes every node of a pipeline and returns the values of the
// pipeline's free outputs that were not pre-registered in the catalog.
type Runner interface {
	Run(ctx context.Context, pipe *model.Pipeline, cat *catalog.Catalog, mgr *hooks.Manager, sessionID string) (map[string]any, error)
}

// OutputMismatchError reports a node function returning a different set of
// outputs than the node declares.
type OutputMismatchError struct {
	Node     string
	Expected []string
	Got      []string
}

func (e *OutputMismatchError) Error() string {
	return fmt.Sprintf(
		"node %q returned outputs [%s], expected [%s]",
		e.Node,
		strings.Join(e.Got, ", "),
		strings.Join(e.Expected, ", "),
	)
}

func newOutputMismatchError(node *model.Node, outputs map[string]any) *OutputMismatchError {
	got := make([]string, 0, len(outputs))
	for name := range outputs {
		got = append(got, name)
	}
	sort.Strings(got)

	expected := append([]string{}, node.Outputs...)
	sort.Strings(expected)

	return &OutputMismatchError{Node: node.Name, Expected: expected, Got: got}
}

// execNode runs one node: loads its inputs, applies hook overrides, calls
// the node function and saves its outputs, emitting every dataset and node
// lifecycle event along the way.
func execNode(ctx context.Context, node *model.Node, cat *catalog.Catalog, mgr *hooks.Manager, sessionID string, async bool) (map[string]any, error) {
	loaded := make(map[string]any, len(node.Inputs))
	for _, name := range node.Inputs {
		err := mgr.BeforeDataSetLoaded(ctx, &hooks.DataSetEvent{Name: name, Node: node})
		if err != nil {
			return nil, err
		}

		value, err := cat.Load(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", node.Name)
		}

		err = mgr.AfterDataSetLoaded(ctx, &hooks.DataSetEvent{Name: name, Node: node, Value: value})
		if err != nil {
			return nil, err
		}
		loaded[name] = value
	}

	overrides, err := mgr.BeforeNodeRun(ctx, &hooks.NodeRun{
		Node:      node,
		Catalog:   cat,
		Inputs:    loaded,
		Async:     async,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "node %q", node.Name)
	}

	// Overrides replace loaded values for this execution only. The
	// catalog entries stay as they are.
	inputs := make(map[string]any, len(loaded))
	for name, value := range loaded {
		inputs[name] = value
	}
	for name, value := range overrides {
		inputs[name] = value
	}

	outputs, err := node.Func(ctx, inputs)
	if err == nil {
		err = checkOutputs(node, outputs)
	}
	if err != nil {
		mgr.OnNodeError(ctx, &hooks.NodeError{
			Err:       err,
			Node:      node,
			Catalog:   cat,
			Inputs:    inputs,
			Async:     async,
			SessionID: sessionID,
		})

		return nil, errors.Wrapf(err, "node %q failed", node.Name)
	}

	for _, name := range node.Outputs {
		value := outputs[name]
		err := mgr.BeforeDataSetSaved(ctx, &hooks.DataSetEvent{Name: name, Node: node, Value: value})
		if err != nil {
			return nil, err
		}
		if err := cat.Save(ctx, name, value); err != nil {
			return nil, errors.Wrapf(err, "node %q", node.Name)
		}
		err = mgr.AfterDataSetSaved(ctx, &hooks.DataSetEvent{Name: name, Node: node, Value: value})
		if err != nil {
			return nil, err
		}
	}

	err = mgr.AfterNodeRun(ctx, &hooks.NodeRunEnded{
		Node:      node,
		Catalog:   cat,
		Inputs:    inputs,
		Outputs:   outputs,
		Async:     async,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	return outputs, nil
}

func checkOutputs(node *model.Node, outputs map[string]any) error {
	if len(outputs) != len(node.Outputs) {
		return newOutputMismatchError(node, outputs)
	}
	for _, name := range node.Outputs {
		if _, ok := outputs[name]; !ok {
			return newOutputMismatchError(node, outputs)
		}
	}

	return nil
}

// collectFreeOutputs loads the pipeline's free outputs that were not
// registered in the catalog before the run started.
func collectFreeOutputs(ctx context.Context, pipe *model.Pipeline, cat *catalog.Catalog, preRegistered map[string]struct{}) (map[string]any, error) {
	results := make(map[string]any)
	for _, name := range pipe.FreeOutputs() {
		if _, ok := preRegistered[name]; ok {
			continue
		}
		value, err := cat.Load(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to collect free output %q", name)
		}
		results[name] = value
	}

	return results, nil
}

func registered(cat *catalog.Catalog) map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range cat.List() {
		set[name] = struct{}{}
	}

	return set
}
