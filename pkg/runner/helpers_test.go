package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/model"
)

func identity(t *testing.T, name, input, output string) *model.Node {
	t.Helper()

	node, err := model.NewNode(name, []string{input}, []string{output},
		func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			return map[string]any{output: inputs[input]}, nil
		})
	require.NoError(t, err)

	return node
}

func source(t *testing.T, name, output string, value any) *model.Node {
	t.Helper()

	node, err := model.NewNode(name, nil, []string{output},
		func(_ context.Context, _ map[string]any) (map[string]any, error) {
			return map[string]any{output: value}, nil
		})
	require.NoError(t, err)

	return node
}

func sink(t *testing.T, name, input string) *model.Node {
	t.Helper()

	node, err := model.NewNode(name, []string{input}, nil,
		func(_ context.Context, _ map[string]any) (map[string]any, error) {
			return nil, nil
		})
	require.NoError(t, err)

	return node
}

// branchlessPipeline runs in the order node3 -> node4 -> node2 -> node1,
// turning A into E.
func branchlessPipeline(t *testing.T) *model.Pipeline {
	t.Helper()

	pipe, err := model.New("branchless",
		identity(t, "node1", "D", "E"),
		identity(t, "node2", "C", "D"),
		identity(t, "node3", "A", "B"),
		identity(t, "node4", "B", "C"),
	)
	require.NoError(t, err)

	return pipe
}

// fanOutFanInPipeline spreads B into C, D and E and gathers them into Z.
func fanOutFanInPipeline(t *testing.T) *model.Pipeline {
	t.Helper()

	fanIn, err := model.NewNode("fan_in", []string{"C", "D", "E"}, []string{"Z"},
		func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			return map[string]any{"Z": []any{inputs["C"], inputs["D"], inputs["E"]}}, nil
		})
	require.NoError(t, err)

	pipe, err := model.New("fan_out_fan_in",
		identity(t, "head", "A", "B"),
		identity(t, "left", "B", "C"),
		identity(t, "middle", "B", "D"),
		identity(t, "right", "B", "E"),
		fanIn,
	)
	require.NoError(t, err)

	return pipe
}
