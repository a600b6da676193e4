// Package draw renders pipeline graphs as DOT files, optionally annotated
// and coloured with the timings a metrics registry recorded during a run.
package draw

import (
	"os"
	"sort"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/pipevine/pipevine/internal/store"
	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/model"
)

// Drawer is the rendering target for a pipeline graph.
type Drawer interface {
	// AddNode adds one pipeline node to the graph.
	AddNode(name string) error
	// AddLink adds an edge between two nodes, labelled with the dataset
	// carried between them.
	AddLink(parentName, childName, dataset string) error
	// ApplyMetrics annotates nodes and edges with recorded durations.
	ApplyMetrics(reg *metrics.Registry) error
	// Draw writes the rendered graph.
	Draw() error
}

// DOTDrawer renders the pipeline graph as a DOT file.
type DOTDrawer struct {
	fileName string
	graph    graph.Graph[string, string]
	store    store.Store[string, string]
	nodes    map[string]struct{}
}

func NewDOTDrawer(fileName string) *DOTDrawer {
	st := store.NewVertexStore[string, string]()

	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.NewWithStore(graph.StringHash, st, graph.Directed()),
		store:    st,
		nodes:    make(map[string]struct{}),
	}
}

// AddNode adds a node vertex to the graph.
func (d *DOTDrawer) AddNode(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %q", name)
	}
	d.nodes[name] = struct{}{}

	return nil
}

// AddLink adds an edge between parent and child, labelled with the
// dataset name.
func (d *DOTDrawer) AddLink(parentName, childName, dataset string) error {
	err := d.graph.AddEdge(parentName, childName, graph.EdgeAttribute("label", dataset))
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %q to %q", parentName, childName)
	}

	return nil
}

// Draw writes the DOT file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = dot(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to render dot file %s", d.fileName)
	}

	return nil
}

const maxRGB = 240

// ApplyMetrics labels every node that has a recorded duration and colours
// its incoming edges on a blue-to-red gradient, slowest node reddest.
func (d *DOTDrawer) ApplyMetrics(reg *metrics.Registry) error {
	durations := reg.Durations()

	recorded := make([]time.Duration, 0, len(durations))
	for name, elapsed := range durations {
		if _, ok := d.nodes[name]; !ok {
			continue
		}
		recorded = append(recorded, elapsed)
	}
	if len(recorded) == 0 {
		return nil
	}
	sort.Slice(recorded, func(i, j int) bool { return recorded[i] < recorded[j] })

	minValue := recorded[0]
	maxValue := recorded[len(recorded)-1]

	for name, elapsed := range durations {
		if _, ok := d.nodes[name]; !ok {
			continue
		}

		label := elapsed.String()
		d.store.UpdateVertex(name, func(p *graph.VertexProperties) {
			if p.Attributes == nil {
				p.Attributes = make(map[string]string)
			}
			p.Attributes["xlabel"] = label
		})

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(elapsed-minValue) / float64(maxValue-minValue)
		}
		red := uint8(maxRGB * fraction)
		blue := uint8(maxRGB - maxRGB*fraction)

		edgeColor, err := colors.RGB(red, 0, blue) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		err = d.colorIncomingEdges(name, elapsed, edgeColor.ToHEX().String())
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *DOTDrawer) colorIncomingEdges(name string, elapsed time.Duration, color string) error {
	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return errors.Wrap(err, "unable to get predecessor map")
	}

	for parent := range predecessors[name] {
		edge, err := d.graph.Edge(parent, name)
		if err != nil {
			return errors.Wrapf(err, "unable to get edge from %q to %q", parent, name)
		}

		label := edge.Properties.Attributes["label"]
		err = d.graph.UpdateEdge(parent, name,
			graph.EdgeAttribute("label", label),
			graph.EdgeAttribute("xlabel", elapsed.String()),
			graph.EdgeAttribute("fontcolor", "blue"),
			graph.EdgeAttribute("color", color),
		)
		if err != nil {
			return errors.Wrapf(err, "unable to update edge from %q to %q", parent, name)
		}
	}

	return nil
}

// Pipeline walks the pipeline and feeds its nodes and links to the
// drawer.
func Pipeline(d Drawer, pipe *model.Pipeline) error {
	for _, node := range pipe.Nodes() {
		err := d.AddNode(node.Name)
		if err != nil {
			return err
		}
	}

	for _, node := range pipe.Nodes() {
		for _, input := range node.Inputs {
			producer, ok := pipe.Producer(input)
			if !ok {
				continue
			}
			err := d.AddLink(producer, node.Name, input)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
