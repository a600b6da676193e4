package cli_test

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/cli"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/model"
	"github.com/pipevine/pipevine/pkg/registry"
)

type commandRecorder struct {
	mu    sync.Mutex
	paths [][]string
}

func (h *commandRecorder) BeforeCommandRun(_ context.Context, event *hooks.CommandRun) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, event.Path)

	return nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()
	reg.Register("default", func() (*model.Pipeline, error) {
		produce, err := model.NewNode("produce", nil, []string{"greeting"},
			func(_ context.Context, _ map[string]any) (map[string]any, error) {
				return map[string]any{"greeting": "hello"}, nil
			}, model.NodeTags("generate"))
		if err != nil {
			return nil, err
		}

		shout, err := model.NewNode("shout", []string{"greeting"}, []string{"loud_greeting"},
			func(_ context.Context, inputs map[string]any) (map[string]any, error) {
				return map[string]any{"loud_greeting": inputs["greeting"].(string) + "!"}, nil
			})
		if err != nil {
			return nil, err
		}

		return model.New("default", produce, shout)
	})

	return reg
}

func execute(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()

	cmd := app.Command()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return buf.String(), err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func missingConfig(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "pipevine.yml")
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	app := cli.NewApp(testRegistry(t), cli.WithLogger(quietLogger()))
	out, err := execute(t, app, "run", "--config", missingConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "loud_greeting: hello!")
}

func TestRunCommandWithTag(t *testing.T) {
	t.Parallel()

	app := cli.NewApp(testRegistry(t), cli.WithLogger(quietLogger()))
	out, err := execute(t, app, "run", "--tag", "generate", "--config", missingConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "greeting: hello")
	assert.NotContains(t, out, "loud_greeting")
}

func TestRunCommandUnknownPipeline(t *testing.T) {
	t.Parallel()

	app := cli.NewApp(testRegistry(t), cli.WithLogger(quietLogger()))
	_, err := execute(t, app, "run", "--pipeline", "missing", "--config", missingConfig(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrUnknownPipeline)
}

func TestRunCommandDispatchesBeforeCommandRun(t *testing.T) {
	t.Parallel()

	rec := &commandRecorder{}
	mgr := hooks.NewManager()
	mgr.Register(rec)

	app := cli.NewApp(testRegistry(t), cli.WithLogger(quietLogger()), cli.WithHooks(mgr))
	_, err := execute(t, app, "run", "--config", missingConfig(t))
	require.NoError(t, err)

	require.Len(t, rec.paths, 1)
	assert.Equal(t, []string{"pipevine", "run"}, rec.paths[0])
}

func TestVizCommand(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "pipeline.dot")

	app := cli.NewApp(testRegistry(t), cli.WithLogger(quietLogger()))
	_, err := execute(t, app, "viz", "--output", output, "--config", missingConfig(t))
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "strict digraph")
	assert.Contains(t, string(content), `"produce" -> "shout"`)
}

func TestCatalogListCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	catalogFile := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(catalogFile, []byte(
		"companies:\n  type: json\n  filepath: "+filepath.Join(dir, "companies.json")+"\n  layer: raw\nscratch:\n  type: memory\n",
	), 0o644))

	configFile := filepath.Join(dir, "pipevine.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("catalog: "+catalogFile+"\n"), 0o644))

	app := cli.NewApp(testRegistry(t), cli.WithLogger(quietLogger()))
	out, err := execute(t, app, "catalog", "list", "--config", configFile)
	require.NoError(t, err)
	assert.Contains(t, out, "companies: type=json layer=raw")
	assert.Contains(t, out, "scratch: type=memory")
}
