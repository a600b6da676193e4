package builtin

import (
	"context"

	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/pkg/hooks"
)

// Suite checks one dataset value. Implementations run whatever validation
// backend they wrap.
type Suite interface {
	Check(ctx context.Context, dataset string, value any) error
}

// SuiteFunc adapts a function to the Suite interface.
type SuiteFunc func(ctx context.Context, dataset string, value any) error

func (f SuiteFunc) Check(ctx context.Context, dataset string, value any) error {
	return f(ctx, dataset, value)
}

// Validator runs validation suites against node inputs before the node
// runs and against node outputs afterwards. Mapping maps dataset names to
// suite identifiers; datasets without a mapping are skipped.
type Validator struct {
	Mapping map[string]string
	Suites  map[string]Suite
}

func (h *Validator) BeforeNodeRun(ctx context.Context, event *hooks.NodeRun) (hooks.Overrides, error) {
	return nil, h.check(ctx, event.Inputs)
}

func (h *Validator) AfterNodeRun(ctx context.Context, event *hooks.NodeRunEnded) error {
	return h.check(ctx, event.Outputs)
}

func (h *Validator) check(ctx context.Context, values map[string]any) error {
	for dataset, value := range values {
		suiteID, ok := h.Mapping[dataset]
		if !ok {
			continue
		}
		suite, ok := h.Suites[suiteID]
		if !ok {
			return errors.Errorf("validation suite %q for dataset %q is not configured", suiteID, dataset)
		}
		if err := suite.Check(ctx, dataset, value); err != nil {
			return errors.Wrapf(err, "validation of dataset %q against suite %q failed", dataset, suiteID)
		}
	}

	return nil
}

var (
	_ hooks.BeforeNodeRunHook = (*Validator)(nil)
	_ hooks.AfterNodeRunHook  = (*Validator)(nil)
)
