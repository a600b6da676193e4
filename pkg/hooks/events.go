package hooks

import (
	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/model"
)

// CatalogCreated is the payload of the after-catalog-created event.
type CatalogCreated struct {
	Catalog *catalog.Catalog
	// Feed holds the names handed to the catalog as pre-loaded values,
	// if any.
	Feed []string
}

// RunParams identifies one end-to-end pipeline run.
type RunParams struct {
	RunID     string
	Pipeline  string
	Namespace string
	Tags      []string
	Extra     map[string]string
}

// PipelineRun is the payload of the before/after-pipeline-run events.
type PipelineRun struct {
	Params   *RunParams
	Pipeline *model.Pipeline
	Catalog  *catalog.Catalog
}

// PipelineError is the payload of the on-pipeline-error event.
type PipelineError struct {
	Err      error
	Params   *RunParams
	Pipeline *model.Pipeline
	Catalog  *catalog.Catalog
}

// NodeRun is the payload of the before-node-run event. Inputs holds the
// values loaded from the catalog for the node's declared inputs.
type NodeRun struct {
	Node      *model.Node
	Catalog   *catalog.Catalog
	Inputs    map[string]any
	Async     bool
	SessionID string
}

// NodeRunEnded is the payload of the after-node-run event. Inputs are the
// values the node actually ran with, overrides applied.
type NodeRunEnded struct {
	Node      *model.Node
	Catalog   *catalog.Catalog
	Inputs    map[string]any
	Outputs   map[string]any
	Async     bool
	SessionID string
}

// NodeError is the payload of the on-node-error event.
type NodeError struct {
	Err       error
	Node      *model.Node
	Catalog   *catalog.Catalog
	Inputs    map[string]any
	Async     bool
	SessionID string
}

// DataSetEvent is the payload of the before/after dataset-loaded and
// dataset-saved events. Value is nil for the two "before" events of a
// load.
type DataSetEvent struct {
	Name  string
	Node  *model.Node
	Value any
}

// CommandRun is the payload of the before-command-run event.
type CommandRun struct {
	// Path is the full command path, e.g. ["pipevine", "run"].
	Path []string
	Args []string
}
