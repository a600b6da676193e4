// Package metrics collects per-node timings, gauges and counters during a
// pipeline run. The drawer reads timings back to colour the rendered
// graph.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Timer accumulates elapsed durations for one name.
type Timer struct {
	started time.Time
	running bool
	total   time.Duration
	count   int64
}

// Registry is a mutex-guarded collection of named timers, gauges and
// counters.
type Registry struct {
	mu       sync.Mutex
	timers   map[string]*Timer
	gauges   map[string]float64
	counters map[string]int64
}

func NewRegistry() *Registry {
	return &Registry{
		timers:   make(map[string]*Timer),
		gauges:   make(map[string]float64),
		counters: make(map[string]int64),
	}
}

// StartTimer starts (or restarts) the named timer.
func (r *Registry) StartTimer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[name]
	if !ok {
		t = &Timer{}
		r.timers[name] = t
	}
	t.started = time.Now()
	t.running = true
}

// StopTimer stops the named timer and returns the elapsed duration of this
// interval. Stopping a timer that is not running returns zero.
func (r *Registry) StopTimer(name string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[name]
	if !ok || !t.running {
		return 0
	}
	elapsed := time.Since(t.started)
	t.running = false
	t.total += elapsed
	t.count++

	return elapsed
}

// AvgDuration returns the rounded average of all completed intervals for
// the named timer.
func (r *Registry) AvgDuration(name string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[name]
	if !ok || t.count == 0 {
		return 0
	}

	return Round(time.Duration(float64(t.total) / float64(t.count)))
}

// Durations returns the rounded average duration of every timer with at
// least one completed interval.
func (r *Registry) Durations() map[string]time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]time.Duration, len(r.timers))
	for name, t := range r.timers {
		if t.count == 0 {
			continue
		}
		out[name] = Round(time.Duration(float64(t.total) / float64(t.count)))
	}

	return out
}

// SetGauge records the latest value for the named gauge.
func (r *Registry) SetGauge(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gauges[name] = value
}

// Gauge returns the latest value of the named gauge.
func (r *Registry) Gauge(name string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.gauges[name]

	return value, ok
}

// AddCounter increments the named counter.
func (r *Registry) AddCounter(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[name] += delta
}

// Counter returns the current value of the named counter.
func (r *Registry) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counters[name]
}

// Names returns the sorted names of all timers.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.timers))
	for name := range r.timers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Round trims a duration to a readable precision.
func Round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Hour)
	case d > time.Minute:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
