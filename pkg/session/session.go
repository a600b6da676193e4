// Package session ties a catalog, a hook manager and a runner into one
// identified pipeline run.
package session

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/model"
	"github.com/pipevine/pipevine/pkg/runner"
)

// Session is a single end-to-end pipeline invocation. Its id names the
// run in every lifecycle event, so hooks can correlate what they observe.
type Session struct {
	id      string
	params  map[string]string
	logger  *log.Logger
	catalog *catalog.Catalog
	hooks   *hooks.Manager
	runner  runner.Runner
}

type Option func(s *Session)

// WithParams attaches extra run parameters, carried verbatim in the
// pipeline run events.
func WithParams(params map[string]string) Option {
	return func(s *Session) {
		s.params = params
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRunner selects the runner executing the pipeline. Defaults to the
// sequential runner.
func WithRunner(r runner.Runner) Option {
	return func(s *Session) {
		s.runner = r
	}
}

// WithID fixes the session id instead of generating one. Meant for
// resuming and for tests.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// New creates a session around the given catalog and hook manager and
// emits the after-catalog-created event.
func New(ctx context.Context, cat *catalog.Catalog, mgr *hooks.Manager, opts ...Option) (*Session, error) {
	if cat == nil {
		return nil, runner.ErrCatalogMustBeSet
	}
	if mgr == nil {
		mgr = hooks.NewManager()
	}

	sess := &Session{
		id:      uuid.NewString(),
		logger:  log.Default(),
		catalog: cat,
		hooks:   mgr,
		runner:  runner.NewSequentialRunner(),
	}
	for _, opt := range opts {
		opt(sess)
	}

	err := mgr.AfterCatalogCreated(ctx, &hooks.CatalogCreated{Catalog: cat, Feed: cat.List()})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create session")
	}

	return sess, nil
}

// ID returns the run-scoped session identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the catalog the session runs against.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Hooks returns the session's hook manager.
func (s *Session) Hooks() *hooks.Manager { return s.hooks }

// Run executes the pipeline, wrapping it in the pipeline-run lifecycle
// events, and returns the free outputs of the run.
func (s *Session) Run(ctx context.Context, pipe *model.Pipeline) (map[string]any, error) {
	if pipe == nil {
		return nil, runner.ErrPipelineMustBeSet
	}

	params := &hooks.RunParams{
		RunID:    s.id,
		Pipeline: pipe.Name(),
		Extra:    s.params,
	}
	event := &hooks.PipelineRun{Params: params, Pipeline: pipe, Catalog: s.catalog}

	err := s.hooks.BeforePipelineRun(ctx, event)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("session %s: running pipeline %q (%d nodes)", s.id, pipe.Name(), len(pipe.Nodes()))

	outputs, err := s.runner.Run(ctx, pipe, s.catalog, s.hooks, s.id)
	if err != nil {
		s.hooks.OnPipelineError(ctx, &hooks.PipelineError{
			Err:      err,
			Params:   params,
			Pipeline: pipe,
			Catalog:  s.catalog,
		})

		return nil, errors.Wrapf(err, "pipeline %q", pipe.Name())
	}

	err = s.hooks.AfterPipelineRun(ctx, event)
	if err != nil {
		return nil, err
	}

	return outputs, nil
}
