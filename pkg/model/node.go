package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// NodeFunc is the computation wrapped by a node. It receives the loaded
// values for the node's declared inputs and must return a value for every
// declared output.
type NodeFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// Node is a named unit of computation with declared input and output
// dataset names.
type Node struct {
	Name    string
	Inputs  []string
	Outputs []string
	Tags    []string
	Func    NodeFunc
}

type NodeOption func(n *Node)

// NodeTags attaches tags to a node. Tags can be used to select or gate
// nodes without naming them individually.
func NodeTags(tags ...string) NodeOption {
	return func(n *Node) {
		n.Tags = append(n.Tags, tags...)
	}
}

// NewNode creates a node and validates its declaration.
func NewNode(name string, inputs, outputs []string, fn NodeFunc, opts ...NodeOption) (*Node, error) {
	if name == "" {
		return nil, ErrNodeNameMustBeSet
	}
	if fn == nil {
		return nil, errors.Wrapf(ErrNodeFuncMustBeSet, "node %q", name)
	}
	if err := uniqueNames(inputs); err != nil {
		return nil, errors.Wrapf(err, "inputs of node %q", name)
	}
	if err := uniqueNames(outputs); err != nil {
		return nil, errors.Wrapf(err, "outputs of node %q", name)
	}

	node := &Node{
		Name:    name,
		Inputs:  append([]string{}, inputs...),
		Outputs: append([]string{}, outputs...),
		Func:    fn,
	}
	for _, opt := range opts {
		opt(node)
	}

	return node, nil
}

// ShortName returns the node name without its namespace prefix.
func (n *Node) ShortName() string {
	if idx := strings.LastIndex(n.Name, "."); idx >= 0 {
		return n.Name[idx+1:]
	}

	return n.Name
}

// Namespace returns the namespace part of the node name, or "" when the
// node is not namespaced.
func (n *Node) Namespace() string {
	if idx := strings.LastIndex(n.Name, "."); idx >= 0 {
		return n.Name[:idx]
	}

	return ""
}

// HasTag reports whether the node carries the given tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s) -> %s", n.Name, strings.Join(n.Inputs, ","), strings.Join(n.Outputs, ","))
}

// withNamespace returns a copy of the node moved under the given namespace.
// Dataset names listed in keep are left untouched.
func (n *Node) withNamespace(namespace string, keep map[string]struct{}) *Node {
	prefix := func(names []string) []string {
		out := make([]string, len(names))
		for i, name := range names {
			if _, ok := keep[name]; ok {
				out[i] = name

				continue
			}
			out[i] = namespace + "." + name
		}

		return out
	}

	return &Node{
		Name:    namespace + "." + n.Name,
		Inputs:  prefix(n.Inputs),
		Outputs: prefix(n.Outputs),
		Tags:    append([]string{}, n.Tags...),
		Func:    n.Func,
	}
}

func uniqueNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return ErrDataSetNameMustBeSet
		}
		if _, ok := seen[name]; ok {
			return errors.Wrap(ErrDuplicateDataSet, name)
		}
		seen[name] = struct{}{}
	}

	return nil
}
