// Package registry holds the named pipelines a project exposes to the
// command line interface. Pipelines register themselves during start-up,
// typically from an init function or early in main.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/pkg/model"
)

var ErrUnknownPipeline = errors.New("unknown pipeline")

// Builder constructs a pipeline on demand.
type Builder func() (*model.Pipeline, error)

// Registry is a named collection of pipeline builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

func New() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, build Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builders[name] = build
}

// Get builds the named pipeline.
func (r *Registry) Get(name string) (*model.Pipeline, error) {
	r.mu.RLock()
	build, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Wrap(ErrUnknownPipeline, name)
	}

	return build()
}

// Names returns the sorted names of all registered pipelines.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

var defaultRegistry = New()

// Register adds a builder to the process-wide registry.
func Register(name string, build Builder) {
	defaultRegistry.Register(name, build)
}

// Get builds a pipeline from the process-wide registry.
func Get(name string) (*model.Pipeline, error) {
	return defaultRegistry.Get(name)
}

// Names lists the process-wide registry.
func Names() []string {
	return defaultRegistry.Names()
}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
