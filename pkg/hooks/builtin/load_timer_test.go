package builtin_test

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/hooks/builtin"
)

func TestLoadTimerRecordsElapsed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	hook := &builtin.LoadTimer{Logger: log.New(&buf, "", 0)}
	node := makeNode(t, "train", []string{"companies"}, nil)

	require.NoError(t, hook.BeforeDataSetLoaded(context.Background(), &hooks.DataSetEvent{Name: "companies", Node: node}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, hook.AfterDataSetLoaded(context.Background(), &hooks.DataSetEvent{Name: "companies", Node: node, Value: []int{1, 2}}))

	elapsed, ok := hook.Elapsed("companies")
	require.True(t, ok)
	assert.Greater(t, elapsed, time.Duration(0))

	assert.Contains(t, buf.String(), "loading companies took")
	assert.Contains(t, buf.String(), "heap grew by")
}

func TestLoadTimerAfterWithoutBefore(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	hook := &builtin.LoadTimer{Logger: log.New(&buf, "", 0)}

	require.NoError(t, hook.AfterDataSetLoaded(context.Background(), &hooks.DataSetEvent{Name: "companies"}))

	_, ok := hook.Elapsed("companies")
	assert.False(t, ok)
	assert.Empty(t, buf.String())
}
