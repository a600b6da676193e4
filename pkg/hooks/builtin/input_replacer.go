package builtin

import (
	"context"

	"github.com/pipevine/pipevine/pkg/hooks"
)

// InputReplacer overrides selected inputs of one node. Inputs not listed
// in Replacements keep their catalog-loaded values, and the catalog itself
// is never touched.
type InputReplacer struct {
	Node         string
	Replacements map[string]any
}

func (h *InputReplacer) BeforeNodeRun(_ context.Context, event *hooks.NodeRun) (hooks.Overrides, error) {
	if event.Node.Name != h.Node || len(h.Replacements) == 0 {
		return nil, nil
	}

	overrides := make(hooks.Overrides, len(h.Replacements))
	for name, value := range h.Replacements {
		overrides[name] = value
	}

	return overrides, nil
}

var _ hooks.BeforeNodeRunHook = (*InputReplacer)(nil)
