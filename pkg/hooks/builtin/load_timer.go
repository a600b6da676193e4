package builtin

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/pipevine/pipevine/pkg/hooks"
)

type loadStart struct {
	at   time.Time
	heap uint64
}

// LoadTimer records, per dataset, how long each load took and how much the
// heap grew while loading.
type LoadTimer struct {
	Logger *log.Logger

	mu      sync.Mutex
	started map[string]loadStart
	elapsed map[string]time.Duration
}

func (h *LoadTimer) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}

	return log.Default()
}

func (h *LoadTimer) BeforeDataSetLoaded(_ context.Context, event *hooks.DataSetEvent) error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started == nil {
		h.started = make(map[string]loadStart)
	}
	h.started[event.Name] = loadStart{at: time.Now(), heap: stats.HeapAlloc}

	return nil
}

func (h *LoadTimer) AfterDataSetLoaded(_ context.Context, event *hooks.DataSetEvent) error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	h.mu.Lock()
	defer h.mu.Unlock()

	start, ok := h.started[event.Name]
	if !ok {
		return nil
	}
	delete(h.started, event.Name)

	elapsed := time.Since(start.at)
	if h.elapsed == nil {
		h.elapsed = make(map[string]time.Duration)
	}
	h.elapsed[event.Name] = elapsed

	// The heap can shrink while loading if the GC runs in between.
	var grown uint64
	if stats.HeapAlloc > start.heap {
		grown = stats.HeapAlloc - start.heap
	}

	h.logger().Printf("loading %s took %s, heap grew by %d bytes", event.Name, elapsed, grown)

	return nil
}

// Elapsed returns the duration of the last completed load of the dataset.
func (h *LoadTimer) Elapsed(name string) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	elapsed, ok := h.elapsed[name]

	return elapsed, ok
}

var (
	_ hooks.BeforeDataSetLoadedHook = (*LoadTimer)(nil)
	_ hooks.AfterDataSetLoadedHook  = (*LoadTimer)(nil)
)
