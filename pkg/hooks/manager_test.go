package hooks_test

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/model"
)

type recordingHook struct {
	name      string
	calls     *[]string
	overrides hooks.Overrides
	err       error
}

func (h *recordingHook) BeforeNodeRun(_ context.Context, _ *hooks.NodeRun) (hooks.Overrides, error) {
	*h.calls = append(*h.calls, h.name)

	return h.overrides, h.err
}

func (h *recordingHook) AfterPipelineRun(_ context.Context, _ *hooks.PipelineRun) error {
	*h.calls = append(*h.calls, h.name)

	return h.err
}

type failingErrorHook struct {
	calls *[]string
}

func (h *failingErrorHook) OnNodeError(_ context.Context, _ *hooks.NodeError) error {
	*h.calls = append(*h.calls, "failing")

	return assert.AnError
}

type countingErrorHook struct {
	calls *[]string
}

func (h *countingErrorHook) OnNodeError(_ context.Context, _ *hooks.NodeError) error {
	*h.calls = append(*h.calls, "counting")

	return nil
}

func testNode(t *testing.T, inputs ...string) *model.Node {
	t.Helper()

	node, err := model.NewNode("my_node", inputs, []string{"out"},
		func(_ context.Context, in map[string]any) (map[string]any, error) {
			return map[string]any{"out": in}, nil
		})
	require.NoError(t, err)

	return node
}

func TestManagerDispatchOrder(t *testing.T) {
	t.Parallel()

	var calls []string

	mgr := hooks.NewManager()
	// H1 is auto-discovered, H2 and H3 explicit with H3 registered
	// last: expected order is H1, H3, H2.
	mgr.RegisterPlugin(&recordingHook{name: "H1", calls: &calls})
	mgr.Register(&recordingHook{name: "H2", calls: &calls})
	mgr.Register(&recordingHook{name: "H3", calls: &calls})

	_, err := mgr.BeforeNodeRun(context.Background(), &hooks.NodeRun{Node: testNode(t, "first_input")})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H3", "H2"}, calls)

	calls = nil
	err = mgr.AfterPipelineRun(context.Background(), &hooks.PipelineRun{})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H3", "H2"}, calls)
}

func TestManagerBeforeNodeRunMergesOverrides(t *testing.T) {
	t.Parallel()

	var calls []string

	mgr := hooks.NewManager()
	// H2 runs after H3, so H2's value for first_input wins.
	mgr.Register(&recordingHook{name: "H2", calls: &calls, overrides: hooks.Overrides{"first_input": "from H2"}})
	mgr.Register(&recordingHook{name: "H3", calls: &calls, overrides: hooks.Overrides{
		"first_input":  "from H3",
		"second_input": 42,
	}})

	overrides, err := mgr.BeforeNodeRun(context.Background(), &hooks.NodeRun{
		Node: testNode(t, "first_input", "second_input"),
	})
	require.NoError(t, err)
	assert.Equal(t, hooks.Overrides{"first_input": "from H2", "second_input": 42}, overrides)
}

func TestManagerBeforeNodeRunInputMismatch(t *testing.T) {
	t.Parallel()

	var calls []string

	mgr := hooks.NewManager()
	mgr.Register(&recordingHook{name: "H", calls: &calls, overrides: hooks.Overrides{"third_input": "X"}})

	_, err := mgr.BeforeNodeRun(context.Background(), &hooks.NodeRun{
		Node: testNode(t, "first_input", "second_input"),
	})
	require.Error(t, err)

	var mismatch *hooks.InputMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "my_node", mismatch.Node)
	assert.Equal(t, []string{"first_input", "second_input"}, mismatch.Expected)
	assert.Equal(t, []string{"third_input"}, mismatch.Got)
	assert.Contains(t, err.Error(), "first_input, second_input")
	assert.Contains(t, err.Error(), "third_input")
}

func TestManagerBeforeNodeRunHandlerErrorAborts(t *testing.T) {
	t.Parallel()

	var calls []string

	mgr := hooks.NewManager()
	mgr.Register(&recordingHook{name: "H2", calls: &calls})
	mgr.Register(&recordingHook{name: "H3", calls: &calls, err: assert.AnError})

	_, err := mgr.BeforeNodeRun(context.Background(), &hooks.NodeRun{Node: testNode(t, "first_input")})
	require.Error(t, err)
	// H3 runs first and fails; H2 must not run.
	assert.Equal(t, []string{"H3"}, calls)
}

func TestManagerOnNodeErrorKeepsGoing(t *testing.T) {
	t.Parallel()

	var (
		calls  []string
		logBuf bytes.Buffer
	)

	mgr := hooks.NewManager(hooks.WithLogger(log.New(&logBuf, "", 0)))
	mgr.Register(&countingErrorHook{calls: &calls})
	mgr.Register(&failingErrorHook{calls: &calls})

	mgr.OnNodeError(context.Background(), &hooks.NodeError{Err: assert.AnError, Node: testNode(t, "in")})

	// The failing handler is logged and the remaining one still runs.
	assert.Equal(t, []string{"failing", "counting"}, calls)
	assert.Contains(t, logBuf.String(), "on node error hook failed")
}

func TestManagerNoHooks(t *testing.T) {
	t.Parallel()

	mgr := hooks.NewManager()
	overrides, err := mgr.BeforeNodeRun(context.Background(), &hooks.NodeRun{Node: testNode(t, "in")})
	require.NoError(t, err)
	assert.Nil(t, overrides)

	require.NoError(t, mgr.AfterCatalogCreated(context.Background(), &hooks.CatalogCreated{Catalog: catalog.New()}))
	require.NoError(t, mgr.BeforeCommandRun(context.Background(), &hooks.CommandRun{Path: []string{"pipevine", "run"}}))
}
