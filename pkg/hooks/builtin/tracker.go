package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/pkg/hooks"
)

// TrackingClient records pipeline runs in an external tracking store.
type TrackingClient interface {
	StartRun(runID string, params map[string]string) error
	LogParam(runID, key, value string) error
	LogArtifact(runID, name string, value any) error
	EndRun(runID string) error
}

// Tracker mirrors a pipeline run into a tracking store: it starts a
// tracking run named after the session id, logs the run parameters, logs
// selected node inputs and outputs and ends the run when the pipeline
// finishes.
type Tracker struct {
	Client TrackingClient

	// ParamNodes maps node short names to the input keys logged as run
	// parameters after that node ran.
	ParamNodes map[string][]string
	// ArtifactNodes maps node short names to the output key stored as
	// an artifact, typically the produced model object.
	ArtifactNodes map[string]string

	mu    sync.Mutex
	runID string
}

func (h *Tracker) BeforePipelineRun(_ context.Context, event *hooks.PipelineRun) error {
	h.mu.Lock()
	h.runID = event.Params.RunID
	h.mu.Unlock()

	return h.Client.StartRun(event.Params.RunID, event.Params.Extra)
}

func (h *Tracker) AfterNodeRun(_ context.Context, event *hooks.NodeRunEnded) error {
	h.mu.Lock()
	runID := h.runID
	h.mu.Unlock()
	if runID == "" {
		return nil
	}

	short := event.Node.ShortName()

	for _, key := range h.ParamNodes[short] {
		value, ok := event.Inputs[key]
		if !ok {
			continue
		}
		err := h.Client.LogParam(runID, short+"."+key, fmt.Sprintf("%v", value))
		if err != nil {
			return err
		}
	}

	if key, ok := h.ArtifactNodes[short]; ok {
		if value, ok := event.Outputs[key]; ok {
			err := h.Client.LogArtifact(runID, key, value)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (h *Tracker) AfterPipelineRun(_ context.Context, event *hooks.PipelineRun) error {
	return h.Client.EndRun(event.Params.RunID)
}

var (
	_ hooks.BeforePipelineRunHook = (*Tracker)(nil)
	_ hooks.AfterNodeRunHook      = (*Tracker)(nil)
	_ hooks.AfterPipelineRunHook  = (*Tracker)(nil)
)

type trackedRun struct {
	ID        string            `json:"id"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
	Params    map[string]string `json:"params"`
	Artifacts map[string]any    `json:"artifacts,omitempty"`
}

// JSONTrackingClient stores one JSON file per tracked run under a
// directory.
type JSONTrackingClient struct {
	dir string

	mu   sync.Mutex
	runs map[string]*trackedRun
}

func NewJSONTrackingClient(dir string) *JSONTrackingClient {
	return &JSONTrackingClient{dir: dir, runs: make(map[string]*trackedRun)}
}

func (c *JSONTrackingClient) StartRun(runID string, params map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.runs[runID]; ok {
		return errors.Errorf("tracking run %q already started", runID)
	}

	run := &trackedRun{
		ID:        runID,
		StartedAt: time.Now().UTC(),
		Params:    make(map[string]string, len(params)),
	}
	for key, value := range params {
		run.Params[key] = value
	}
	c.runs[runID] = run

	return c.flush(run)
}

func (c *JSONTrackingClient) LogParam(runID, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.runs[runID]
	if !ok {
		return errors.Errorf("tracking run %q is not started", runID)
	}
	run.Params[key] = value

	return c.flush(run)
}

func (c *JSONTrackingClient) LogArtifact(runID, name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.runs[runID]
	if !ok {
		return errors.Errorf("tracking run %q is not started", runID)
	}
	if run.Artifacts == nil {
		run.Artifacts = make(map[string]any)
	}
	run.Artifacts[name] = value

	return c.flush(run)
}

func (c *JSONTrackingClient) EndRun(runID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.runs[runID]
	if !ok {
		return errors.Errorf("tracking run %q is not started", runID)
	}
	now := time.Now().UTC()
	run.EndedAt = &now

	return c.flush(run)
}

func (c *JSONTrackingClient) flush(run *trackedRun) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "unable to create tracking directory")
	}

	content, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "unable to encode tracking run %q", run.ID)
	}

	path := filepath.Join(c.dir, run.ID+".json")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write tracking run %q", run.ID)
	}

	return nil
}

var _ TrackingClient = (*JSONTrackingClient)(nil)
