package builtin

import (
	"context"

	"github.com/pipevine/pipevine/pkg/hooks"
)

// NodeGate runs extra logic before selected nodes. A node matches when its
// name equals Node or when it carries the Tag; either selector may be left
// empty.
type NodeGate struct {
	Node string
	Tag  string
	Fn   func(ctx context.Context, event *hooks.NodeRun) error
}

func (h *NodeGate) BeforeNodeRun(ctx context.Context, event *hooks.NodeRun) (hooks.Overrides, error) {
	if h.Fn == nil || !h.matches(event) {
		return nil, nil
	}

	return nil, h.Fn(ctx, event)
}

func (h *NodeGate) matches(event *hooks.NodeRun) bool {
	if h.Node != "" && event.Node.Name == h.Node {
		return true
	}
	if h.Tag != "" && event.Node.HasTag(h.Tag) {
		return true
	}

	return false
}

var _ hooks.BeforeNodeRunHook = (*NodeGate)(nil)
