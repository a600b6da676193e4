// Package cli exposes the pipevine command line: running registered
// pipelines, rendering them as DOT files and listing the catalog. Every
// command dispatches the before-command-run event before doing anything
// else, so command hooks observe the full invocation.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/config"
	"github.com/pipevine/pipevine/pkg/draw"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/hooks/builtin"
	"github.com/pipevine/pipevine/pkg/metrics"
	"github.com/pipevine/pipevine/pkg/model"
	"github.com/pipevine/pipevine/pkg/registry"
	"github.com/pipevine/pipevine/pkg/runner"
	"github.com/pipevine/pipevine/pkg/session"
)

// App wires configuration, the pipeline registry and the hook manager
// into a cobra command tree.
type App struct {
	registry *registry.Registry
	hooks    *hooks.Manager
	metrics  *metrics.Registry
	logger   *log.Logger

	cfgFile string
	cfg     config.Config
}

type Option func(a *App)

// WithLogger sets the application logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithHooks replaces the hook manager, letting callers pre-register
// project hooks before the command runs.
func WithHooks(mgr *hooks.Manager) Option {
	return func(a *App) {
		a.hooks = mgr
	}
}

func NewApp(reg *registry.Registry, opts ...Option) *App {
	app := &App{
		registry: reg,
		hooks:    hooks.NewManager(),
		metrics:  metrics.NewRegistry(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(app)
	}

	return app
}

// Hooks returns the app's hook manager.
func (a *App) Hooks() *hooks.Manager { return a.hooks }

// Command builds the root command.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "pipevine",
		Short:         "Run, inspect and draw data pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := a.setup()
			if err != nil {
				return err
			}

			return a.hooks.BeforeCommandRun(cmd.Context(), &hooks.CommandRun{
				Path: strings.Fields(cmd.CommandPath()),
				Args: args,
			})
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "pipevine.yml", "path of the configuration file")

	root.AddCommand(a.runCommand(), a.vizCommand(), a.catalogCommand())

	return root
}

// Execute runs the command tree against os.Args.
func (a *App) Execute(ctx context.Context) error {
	return a.Command().ExecuteContext(ctx)
}

// setup loads the configuration and registers the hooks it declares.
func (a *App) setup() error {
	cfg := config.Default()
	if _, err := os.Stat(a.cfgFile); err == nil {
		cfg, err = config.Load(a.cfgFile)
		if err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.hooks.Register(&builtin.CatalogLogger{Logger: a.logger})
	a.hooks.Register(builtin.NewMetricsHook(a.metrics))
	if len(cfg.WebHooks) > 0 {
		a.hooks.Register(&builtin.WebHook{URLs: cfg.WebHooks})
	}
	if cfg.TrackingDir != "" {
		a.hooks.Register(&builtin.Tracker{Client: builtin.NewJSONTrackingClient(cfg.TrackingDir)})
	}

	return nil
}

func (a *App) loadCatalog() (*catalog.Catalog, error) {
	if a.cfg.Catalog == "" {
		return catalog.New(), nil
	}
	if _, err := os.Stat(a.cfg.Catalog); err != nil {
		if os.IsNotExist(err) {
			return catalog.New(), nil
		}

		return nil, errors.Wrapf(err, "unable to stat catalog file %s", a.cfg.Catalog)
	}

	return catalog.LoadFile(a.cfg.Catalog)
}

func (a *App) buildRunner() runner.Runner {
	if a.cfg.Runner == "thread" {
		return runner.NewThreadRunner(a.cfg.Workers)
	}

	return runner.NewSequentialRunner()
}

func (a *App) buildPipeline(name, tag, namespace string) (*model.Pipeline, error) {
	pipe, err := a.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if tag != "" {
		pipe, err = pipe.Tagged(tag)
		if err != nil {
			return nil, err
		}
	}
	if namespace != "" {
		pipe, err = pipe.WithNamespace(namespace)
		if err != nil {
			return nil, err
		}
	}

	return pipe, nil
}

func (a *App) runCommand() *cobra.Command {
	var name, tag, namespace string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a registered pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipe, err := a.buildPipeline(name, tag, namespace)
			if err != nil {
				return err
			}

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}

			sess, err := session.New(cmd.Context(), cat, a.hooks,
				session.WithLogger(a.logger),
				session.WithRunner(a.buildRunner()),
			)
			if err != nil {
				return err
			}

			outputs, err := sess.Run(cmd.Context(), pipe)
			if err != nil {
				return err
			}

			for dsName, value := range outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", dsName, value)
			}

			return nil
		},
	}
	cmd.Flags().StringVar(&name, "pipeline", "default", "name of the registered pipeline")
	cmd.Flags().StringVar(&tag, "tag", "", "only run nodes carrying this tag")
	cmd.Flags().StringVar(&namespace, "namespace", "", "run the pipeline under a namespace")

	return cmd
}

func (a *App) vizCommand() *cobra.Command {
	var name, output string

	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Write a DOT rendering of a registered pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipe, err := a.buildPipeline(name, "", "")
			if err != nil {
				return err
			}

			if output == "" {
				output = a.cfg.Viz
			}

			drawer := draw.NewDOTDrawer(output)
			if err := draw.Pipeline(drawer, pipe); err != nil {
				return err
			}
			if err := drawer.ApplyMetrics(a.metrics); err != nil {
				return err
			}
			if err := drawer.Draw(); err != nil {
				return err
			}

			a.logger.Printf("wrote %s", output)

			return nil
		},
	}
	cmd.Flags().StringVar(&name, "pipeline", "default", "name of the registered pipeline")
	cmd.Flags().StringVar(&output, "output", "", "path of the DOT file to write")

	return cmd
}

func (a *App) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the data catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the catalog's datasets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}

			descriptions := cat.Describe()
			for _, dsName := range cat.List() {
				desc := descriptions[dsName]
				fmt.Fprintf(cmd.OutOrStdout(), "%s: type=%s", dsName, desc["type"])
				if layer, ok := desc["layer"]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), " layer=%s", layer)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}

			return nil
		},
	}
	cmd.AddCommand(list)

	return cmd
}
