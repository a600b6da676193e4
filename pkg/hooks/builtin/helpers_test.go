package builtin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/model"
)

func makeNode(t *testing.T, name string, inputs, outputs []string, opts ...model.NodeOption) *model.Node {
	t.Helper()

	node, err := model.NewNode(name, inputs, outputs,
		func(_ context.Context, _ map[string]any) (map[string]any, error) {
			return nil, nil
		}, opts...)
	require.NoError(t, err)

	return node
}
