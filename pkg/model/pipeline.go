package model

import (
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/internal/store"
)

// Pipeline is an immutable, acyclic collection of nodes connected through
// the dataset names they consume and produce.
type Pipeline struct {
	name      string
	nodes     map[string]*Node
	order     []string            // node names in topological order
	producers map[string]string   // dataset name -> producing node name
	consumers map[string][]string // dataset name -> consuming node names
	graph     graph.Graph[string, string]
}

// New builds a pipeline from the given nodes. It fails on duplicate node
// names, on two nodes producing the same dataset and on cyclic
// dependencies.
func New(name string, nodes ...*Node) (*Pipeline, error) {
	pipe := &Pipeline{
		name:      name,
		nodes:     make(map[string]*Node, len(nodes)),
		producers: make(map[string]string),
		consumers: make(map[string][]string),
		graph: graph.NewWithStore(
			graph.StringHash,
			store.NewVertexStore[string, string](),
			graph.Directed(),
			graph.PreventCycles(),
		),
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}
		if _, ok := pipe.nodes[node.Name]; ok {
			return nil, errors.Wrap(ErrDuplicateNode, node.Name)
		}
		pipe.nodes[node.Name] = node

		err := pipe.graph.AddVertex(node.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add node %q", node.Name)
		}

		for _, output := range node.Outputs {
			if producer, ok := pipe.producers[output]; ok {
				return nil, errors.Wrapf(ErrDuplicateOutput, "%q produced by %q and %q", output, producer, node.Name)
			}
			pipe.producers[output] = node.Name
		}
	}

	for _, node := range pipe.nodes {
		for _, input := range node.Inputs {
			pipe.consumers[input] = append(pipe.consumers[input], node.Name)

			producer, ok := pipe.producers[input]
			if !ok {
				continue
			}
			err := pipe.graph.AddEdge(producer, node.Name)
			switch {
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, errors.Wrapf(ErrCycle, "edge %q -> %q", producer, node.Name)
			case errors.Is(err, graph.ErrEdgeAlreadyExists):
			case err != nil:
				return nil, errors.Wrapf(err, "unable to add edge %q -> %q", producer, node.Name)
			}
		}
	}

	err := pipe.sort()
	if err != nil {
		return nil, err
	}

	return pipe, nil
}

// sort computes a deterministic topological order, breaking ties by node
// name.
func (p *Pipeline) sort() error {
	indegree := make(map[string]int, len(p.nodes))
	for name := range p.nodes {
		indegree[name] = 0
	}
	for name, upstreams := range p.Dependencies() {
		indegree[name] = len(upstreams)
	}

	ready := make([]string, 0, len(p.nodes))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	children := p.Children()
	order := make([]string, 0, len(p.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := make([]string, 0)
		for _, child := range children[name] {
			indegree[child]--
			if indegree[child] == 0 {
				next = append(next, child)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
	}

	if len(order) != len(p.nodes) {
		return ErrCycle
	}
	p.order = order

	return nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Nodes returns the pipeline nodes in topological order.
func (p *Pipeline) Nodes() []*Node {
	nodes := make([]*Node, len(p.order))
	for i, name := range p.order {
		nodes[i] = p.nodes[name]
	}

	return nodes
}

// Node returns the node with the given name.
func (p *Pipeline) Node(name string) (*Node, error) {
	node, ok := p.nodes[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownNode, name)
	}

	return node, nil
}

// Dependencies returns, for every node name, the sorted, de-duplicated
// names of its upstream nodes.
func (p *Pipeline) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(p.nodes))
	for name, node := range p.nodes {
		upstreams := make(map[string]struct{})
		for _, input := range node.Inputs {
			if producer, ok := p.producers[input]; ok {
				upstreams[producer] = struct{}{}
			}
		}
		if len(upstreams) > 0 {
			deps[name] = sortedKeys(upstreams)
		}
	}

	return deps
}

// Children returns, for every node name, the sorted, de-duplicated names of
// its downstream nodes.
func (p *Pipeline) Children() map[string][]string {
	children := make(map[string]map[string]struct{}, len(p.nodes))
	for name, upstreams := range p.Dependencies() {
		for _, upstream := range upstreams {
			if children[upstream] == nil {
				children[upstream] = make(map[string]struct{})
			}
			children[upstream][name] = struct{}{}
		}
	}

	out := make(map[string][]string, len(children))
	for name, set := range children {
		out[name] = sortedKeys(set)
	}

	return out
}

// DataSets returns the sorted names of every dataset the pipeline touches.
func (p *Pipeline) DataSets() []string {
	seen := make(map[string]struct{})
	for _, node := range p.nodes {
		for _, name := range node.Inputs {
			seen[name] = struct{}{}
		}
		for _, name := range node.Outputs {
			seen[name] = struct{}{}
		}
	}

	return sortedKeys(seen)
}

// FreeInputs returns the sorted dataset names the pipeline consumes but
// never produces. They must be provided by the catalog.
func (p *Pipeline) FreeInputs() []string {
	free := make(map[string]struct{})
	for name := range p.consumers {
		if _, ok := p.producers[name]; !ok {
			free[name] = struct{}{}
		}
	}

	return sortedKeys(free)
}

// FreeOutputs returns the sorted dataset names the pipeline produces but
// no node consumes. A run returns their values.
func (p *Pipeline) FreeOutputs() []string {
	free := make(map[string]struct{})
	for name := range p.producers {
		if _, ok := p.consumers[name]; !ok {
			free[name] = struct{}{}
		}
	}

	return sortedKeys(free)
}

// Producer returns the name of the node producing the given dataset.
func (p *Pipeline) Producer(dataset string) (string, bool) {
	producer, ok := p.producers[dataset]

	return producer, ok
}

// Tagged returns a new pipeline containing only the nodes carrying the tag.
func (p *Pipeline) Tagged(tag string) (*Pipeline, error) {
	kept := make([]*Node, 0, len(p.nodes))
	for _, node := range p.Nodes() {
		if node.HasTag(tag) {
			kept = append(kept, node)
		}
	}

	return New(p.name, kept...)
}

// WithNamespace returns a copy of the pipeline with every node and dataset
// name moved under the namespace. Dataset names listed in keep stay as they
// are so the namespaced pipeline can still connect to shared datasets.
func (p *Pipeline) WithNamespace(namespace string, keep ...string) (*Pipeline, error) {
	if namespace == "" {
		return p, nil
	}

	keepSet := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		keepSet[name] = struct{}{}
	}

	renamed := make([]*Node, 0, len(p.nodes))
	for _, node := range p.Nodes() {
		renamed = append(renamed, node.withNamespace(namespace, keepSet))
	}

	return New(namespace+"."+p.name, renamed...)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
