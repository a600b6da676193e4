package draw_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/draw"
	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/model"
)

func noop(t *testing.T, name string, inputs, outputs []string) *model.Node {
	t.Helper()

	node, err := model.NewNode(name, inputs, outputs,
		func(_ context.Context, _ map[string]any) (map[string]any, error) {
			out := make(map[string]any, len(outputs))
			for _, name := range outputs {
				out[name] = nil
			}

			return out, nil
		})
	require.NoError(t, err)

	return node
}

func smallPipeline(t *testing.T) *model.Pipeline {
	t.Helper()

	pipe, err := model.New("small",
		noop(t, "extract", []string{"raw"}, []string{"clean"}),
		noop(t, "train", []string{"clean"}, []string{"model"}),
	)
	require.NoError(t, err)

	return pipe
}

func TestDOTDrawerDraw(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "pipeline.dot")
	d := draw.NewDOTDrawer(fileName)

	require.NoError(t, draw.Pipeline(d, smallPipeline(t)))
	require.NoError(t, d.Draw())

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)

	dot := string(content)
	assert.Contains(t, dot, "strict digraph")
	assert.Contains(t, dot, `"extract"`)
	assert.Contains(t, dot, `"train"`)
	assert.Contains(t, dot, `"extract" -> "train"`)
	assert.Contains(t, dot, `label="clean"`)
}

func TestDOTDrawerApplyMetrics(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "pipeline.dot")
	d := draw.NewDOTDrawer(fileName)
	require.NoError(t, draw.Pipeline(d, smallPipeline(t)))

	reg := metrics.NewRegistry()
	reg.StartTimer("extract")
	reg.StartTimer("train")
	time.Sleep(2 * time.Millisecond)
	reg.StopTimer("extract")
	reg.StopTimer("train")

	require.NoError(t, d.ApplyMetrics(reg))
	require.NoError(t, d.Draw())

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)

	dot := string(content)
	// Vertices with timings are rendered with a two-line HTML label and
	// their incoming edges get a gradient colour.
	assert.Contains(t, dot, "FONT POINT-SIZE")
	assert.Contains(t, dot, `color="#`)
}

func TestDOTDrawerApplyMetricsNoTimings(t *testing.T) {
	t.Parallel()

	d := draw.NewDOTDrawer(filepath.Join(t.TempDir(), "pipeline.dot"))
	require.NoError(t, draw.Pipeline(d, smallPipeline(t)))
	require.NoError(t, d.ApplyMetrics(metrics.NewRegistry()))
}

func TestDOTDrawerDuplicateLink(t *testing.T) {
	t.Parallel()

	d := draw.NewDOTDrawer(filepath.Join(t.TempDir(), "pipeline.dot"))
	require.NoError(t, d.AddNode("a"))
	require.NoError(t, d.AddNode("b"))
	require.NoError(t, d.AddLink("a", "b", "ds"))
	require.NoError(t, d.AddLink("a", "b", "ds"))
}

func TestDOTDrawerDrawBadPath(t *testing.T) {
	t.Parallel()

	d := draw.NewDOTDrawer(filepath.Join(t.TempDir(), "missing", "pipeline.dot"))
	require.NoError(t, d.AddNode("a"))
	assert.Error(t, d.Draw())
}
