package builtin_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/hooks/builtin"
)

func TestTrackerMirrorsRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	client := builtin.NewJSONTrackingClient(dir)
	tracker := &builtin.Tracker{
		Client:        client,
		ParamNodes:    map[string][]string{"train": {"learning_rate"}},
		ArtifactNodes: map[string]string{"train": "model"},
	}

	params := &hooks.RunParams{RunID: "run-1", Pipeline: "training", Extra: map[string]string{"env": "test"}}
	runEvent := &hooks.PipelineRun{Params: params}

	require.NoError(t, tracker.BeforePipelineRun(ctx, runEvent))

	node := makeNode(t, "ns.train", []string{"learning_rate", "companies"}, []string{"model"})
	require.NoError(t, tracker.AfterNodeRun(ctx, &hooks.NodeRunEnded{
		Node:    node,
		Inputs:  map[string]any{"learning_rate": 0.01, "companies": []string{"a"}},
		Outputs: map[string]any{"model": map[string]any{"weights": []float64{1, 2}}},
	}))

	require.NoError(t, tracker.AfterPipelineRun(ctx, runEvent))

	content, err := os.ReadFile(filepath.Join(dir, "run-1.json"))
	require.NoError(t, err)

	var run struct {
		ID        string            `json:"id"`
		EndedAt   *string           `json:"ended_at"`
		Params    map[string]string `json:"params"`
		Artifacts map[string]any    `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(content, &run))

	assert.Equal(t, "run-1", run.ID)
	assert.NotNil(t, run.EndedAt)
	assert.Equal(t, map[string]string{"env": "test", "train.learning_rate": "0.01"}, run.Params)
	require.Contains(t, run.Artifacts, "model")
}

func TestTrackerSkipsUnmappedNodes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := builtin.NewJSONTrackingClient(t.TempDir())
	tracker := &builtin.Tracker{Client: client}

	params := &hooks.RunParams{RunID: "run-2", Pipeline: "training"}
	require.NoError(t, tracker.BeforePipelineRun(ctx, &hooks.PipelineRun{Params: params}))
	require.NoError(t, tracker.AfterNodeRun(ctx, &hooks.NodeRunEnded{
		Node:    makeNode(t, "evaluate", nil, []string{"score"}),
		Outputs: map[string]any{"score": 0.9},
	}))
	require.NoError(t, tracker.AfterPipelineRun(ctx, &hooks.PipelineRun{Params: params}))
}

func TestTrackerBeforePipelineRunNotSeen(t *testing.T) {
	t.Parallel()

	tracker := &builtin.Tracker{Client: builtin.NewJSONTrackingClient(t.TempDir())}

	// Without a started run the node event is a no-op.
	require.NoError(t, tracker.AfterNodeRun(context.Background(), &hooks.NodeRunEnded{
		Node: makeNode(t, "train", nil, nil),
	}))
}

func TestJSONTrackingClientErrors(t *testing.T) {
	t.Parallel()

	client := builtin.NewJSONTrackingClient(t.TempDir())

	require.NoError(t, client.StartRun("run-1", nil))
	assert.Error(t, client.StartRun("run-1", nil))

	assert.Error(t, client.LogParam("unknown", "k", "v"))
	assert.Error(t, client.LogArtifact("unknown", "a", 1))
	assert.Error(t, client.EndRun("unknown"))
}
