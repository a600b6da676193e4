package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/model"
)

const defaultMaxWorkers = 4

// ThreadRunner executes independent nodes concurrently. A node is
// dispatched as soon as all its upstream nodes have finished; the first
// error cancels the run.
type ThreadRunner struct {
	MaxWorkers int
}

func NewThreadRunner(maxWorkers int) *ThreadRunner {
	return &ThreadRunner{MaxWorkers: maxWorkers}
}

func (r *ThreadRunner) Run(ctx context.Context, pipe *model.Pipeline, cat *catalog.Catalog, mgr *hooks.Manager, sessionID string) (map[string]any, error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if cat == nil {
		return nil, ErrCatalogMustBeSet
	}
	if mgr == nil {
		mgr = hooks.NewManager()
	}

	workers := r.MaxWorkers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}

	preRegistered := registered(cat)

	nodes := pipe.Nodes()
	children := pipe.Children()

	// unmet counts the upstream nodes each node is still waiting for.
	unmet := make(map[string]int, len(nodes))
	for name, upstreams := range pipe.Dependencies() {
		unmet[name] = len(upstreams)
	}

	ready := make(chan *model.Node, len(nodes))
	var mu sync.Mutex
	remaining := len(nodes)

	for _, node := range nodes {
		if unmet[node.Name] == 0 {
			ready <- node
		}
	}
	if remaining == 0 {
		close(ready)
	}

	grp, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		grp.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case node, ok := <-ready:
					if !ok {
						return nil
					}
					if _, err := execNode(gctx, node, cat, mgr, sessionID, true); err != nil {
						return err
					}

					mu.Lock()
					for _, child := range children[node.Name] {
						unmet[child]--
						if unmet[child] == 0 {
							childNode, err := pipe.Node(child)
							if err != nil {
								mu.Unlock()

								return err
							}
							ready <- childNode
						}
					}
					remaining--
					if remaining == 0 {
						close(ready)
					}
					mu.Unlock()
				}
			}
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return collectFreeOutputs(ctx, pipe, cat, preRegistered)
}
