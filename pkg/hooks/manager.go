package hooks

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"
)

// Manager holds the registered hook implementations and dispatches
// lifecycle events to them.
//
// Implementations live in two groups: auto-discovered ("plugin") hooks,
// contributed by installed extensions, and explicitly registered ones.
// Dispatch runs the plugin group first, in registration order, then the
// explicit group most-recently-registered first. The manager is populated
// during process start-up and read-only afterwards.
type Manager struct {
	mu       sync.RWMutex
	plugins  []any
	explicit []any
	logger   *log.Logger
}

type ManagerOption func(m *Manager)

// WithLogger sets the logger used to report failing error-event handlers.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty hook manager.
func NewManager(opts ...ManagerOption) *Manager {
	mgr := &Manager{logger: log.Default()}
	for _, opt := range opts {
		opt(mgr)
	}

	return mgr
}

// Register adds explicitly configured hook implementations. Among
// explicit hooks, the one registered last is dispatched first.
func (m *Manager) Register(hooks ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.explicit = append(m.explicit, hooks...)
}

// RegisterPlugin adds auto-discovered hook implementations. Plugin hooks
// are dispatched before all explicit ones, in registration order.
func (m *Manager) RegisterPlugin(hooks ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = append(m.plugins, hooks...)
}

// ordered returns all hooks in dispatch order.
func (m *Manager) ordered() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]any, 0, len(m.plugins)+len(m.explicit))
	out = append(out, m.plugins...)
	for i := len(m.explicit) - 1; i >= 0; i-- {
		out = append(out, m.explicit[i])
	}

	return out
}

// AfterCatalogCreated dispatches the after-catalog-created event.
func (m *Manager) AfterCatalogCreated(ctx context.Context, event *CatalogCreated) error {
	for _, h := range m.ordered() {
		hook, ok := h.(AfterCatalogCreatedHook)
		if !ok {
			continue
		}
		if err := hook.AfterCatalogCreated(ctx, event); err != nil {
			return errors.Wrap(err, "after catalog created hook")
		}
	}

	return nil
}

// BeforePipelineRun dispatches the before-pipeline-run event.
func (m *Manager) BeforePipelineRun(ctx context.Context, event *PipelineRun) error {
	for _, h := range m.ordered() {
		hook, ok := h.(BeforePipelineRunHook)
		if !ok {
			continue
		}
		if err := hook.BeforePipelineRun(ctx, event); err != nil {
			return errors.Wrap(err, "before pipeline run hook")
		}
	}

	return nil
}

// AfterPipelineRun dispatches the after-pipeline-run event.
func (m *Manager) AfterPipelineRun(ctx context.Context, event *PipelineRun) error {
	for _, h := range m.ordered() {
		hook, ok := h.(AfterPipelineRunHook)
		if !ok {
			continue
		}
		if err := hook.AfterPipelineRun(ctx, event); err != nil {
			return errors.Wrap(err, "after pipeline run hook")
		}
	}

	return nil
}

// OnPipelineError dispatches the on-pipeline-error event. A failing
// handler is logged and skipped so error reporting never masks the run
// failure itself.
func (m *Manager) OnPipelineError(ctx context.Context, event *PipelineError) {
	for _, h := range m.ordered() {
		hook, ok := h.(PipelineErrorHook)
		if !ok {
			continue
		}
		if err := hook.OnPipelineError(ctx, event); err != nil {
			m.logger.Printf("on pipeline error hook failed: %v", err)
		}
	}
}

// BeforeNodeRun dispatches the before-node-run event and merges the
// returned input overrides in dispatch order, later responses overwriting
// earlier keys. Every response is validated against the node's declared
// inputs; a violation fails the dispatch with an InputMismatchError.
func (m *Manager) BeforeNodeRun(ctx context.Context, event *NodeRun) (Overrides, error) {
	declared := make(map[string]struct{}, len(event.Node.Inputs))
	for _, name := range event.Node.Inputs {
		declared[name] = struct{}{}
	}

	merged := Overrides{}
	for _, h := range m.ordered() {
		hook, ok := h.(BeforeNodeRunHook)
		if !ok {
			continue
		}
		overrides, err := hook.BeforeNodeRun(ctx, event)
		if err != nil {
			return nil, errors.Wrap(err, "before node run hook")
		}

		var unexpected []string
		for name := range overrides {
			if _, ok := declared[name]; !ok {
				unexpected = append(unexpected, name)
			}
		}
		if len(unexpected) > 0 {
			return nil, newInputMismatchError(event.Node.Name, event.Node.Inputs, unexpected)
		}

		for name, value := range overrides {
			merged[name] = value
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}

	return merged, nil
}

// AfterNodeRun dispatches the after-node-run event.
func (m *Manager) AfterNodeRun(ctx context.Context, event *NodeRunEnded) error {
	for _, h := range m.ordered() {
		hook, ok := h.(AfterNodeRunHook)
		if !ok {
			continue
		}
		if err := hook.AfterNodeRun(ctx, event); err != nil {
			return errors.Wrap(err, "after node run hook")
		}
	}

	return nil
}

// OnNodeError dispatches the on-node-error event. Failing handlers are
// logged and skipped.
func (m *Manager) OnNodeError(ctx context.Context, event *NodeError) {
	for _, h := range m.ordered() {
		hook, ok := h.(NodeErrorHook)
		if !ok {
			continue
		}
		if err := hook.OnNodeError(ctx, event); err != nil {
			m.logger.Printf("on node error hook failed: %v", err)
		}
	}
}

// BeforeDataSetLoaded dispatches the before-dataset-loaded event.
func (m *Manager) BeforeDataSetLoaded(ctx context.Context, event *DataSetEvent) error {
	for _, h := range m.ordered() {
		hook, ok := h.(BeforeDataSetLoadedHook)
		if !ok {
			continue
		}
		if err := hook.BeforeDataSetLoaded(ctx, event); err != nil {
			return errors.Wrap(err, "before dataset loaded hook")
		}
	}

	return nil
}

// AfterDataSetLoaded dispatches the after-dataset-loaded event.
func (m *Manager) AfterDataSetLoaded(ctx context.Context, event *DataSetEvent) error {
	for _, h := range m.ordered() {
		hook, ok := h.(AfterDataSetLoadedHook)
		if !ok {
			continue
		}
		if err := hook.AfterDataSetLoaded(ctx, event); err != nil {
			return errors.Wrap(err, "after dataset loaded hook")
		}
	}

	return nil
}

// BeforeDataSetSaved dispatches the before-dataset-saved event.
func (m *Manager) BeforeDataSetSaved(ctx context.Context, event *DataSetEvent) error {
	for _, h := range m.ordered() {
		hook, ok := h.(BeforeDataSetSavedHook)
		if !ok {
			continue
		}
		if err := hook.BeforeDataSetSaved(ctx, event); err != nil {
			return errors.Wrap(err, "before dataset saved hook")
		}
	}

	return nil
}

// AfterDataSetSaved dispatches the after-dataset-saved event.
func (m *Manager) AfterDataSetSaved(ctx context.Context, event *DataSetEvent) error {
	for _, h := range m.ordered() {
		hook, ok := h.(AfterDataSetSavedHook)
		if !ok {
			continue
		}
		if err := hook.AfterDataSetSaved(ctx, event); err != nil {
			return errors.Wrap(err, "after dataset saved hook")
		}
	}

	return nil
}

// BeforeCommandRun dispatches the before-command-run event.
func (m *Manager) BeforeCommandRun(ctx context.Context, event *CommandRun) error {
	for _, h := range m.ordered() {
		hook, ok := h.(BeforeCommandRunHook)
		if !ok {
			continue
		}
		if err := hook.BeforeCommandRun(ctx, event); err != nil {
			return errors.Wrap(err, "before command run hook")
		}
	}

	return nil
}
