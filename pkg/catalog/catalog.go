// Package catalog maps logical dataset names to storage backends. Nodes
// never touch storage directly; they receive values loaded from the
// catalog and their outputs are saved back through it.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("dataset is not registered in the catalog")
	ErrAlreadyExists = errors.New("dataset is already registered in the catalog")
	ErrNotSaved      = errors.New("dataset has no saved value yet")
	ErrNotSupported  = errors.New("operation is not supported by this dataset")
	ErrNilValue      = errors.New("saving a nil value is not allowed")
)

// Catalog is the registry of named datasets a pipeline runs against.
type Catalog struct {
	mu       sync.RWMutex
	datasets map[string]DataSet
	layers   map[string]string
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		datasets: make(map[string]DataSet),
		layers:   make(map[string]string),
	}
}

// Add registers a dataset under the given name.
func (c *Catalog) Add(name string, ds DataSet) error {
	if name == "" {
		return errors.New("dataset name must be set")
	}
	if ds == nil {
		return errors.New("dataset must be set")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.datasets[name]; ok {
		return errors.Wrap(ErrAlreadyExists, name)
	}
	c.datasets[name] = ds

	return nil
}

// SetLayer records the layer a dataset belongs to. Layers group datasets
// for description and visualisation only.
func (c *Catalog) SetLayer(name, layer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.layers[name] = layer
}

// Layer returns the layer recorded for the dataset, if any.
func (c *Catalog) Layer(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	layer, ok := c.layers[name]

	return layer, ok
}

// Get returns the dataset registered under the given name.
func (c *Catalog) Get(name string) (DataSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, ok := c.datasets[name]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, name)
	}

	return ds, nil
}

// Exists reports whether a dataset is registered under the given name.
func (c *Catalog) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.datasets[name]

	return ok
}

// Load reads the current value of the named dataset.
func (c *Catalog) Load(ctx context.Context, name string) (any, error) {
	ds, err := c.Get(name)
	if err != nil {
		return nil, err
	}

	value, err := ds.Load(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load dataset %q", name)
	}

	return value, nil
}

// Save writes a value to the named dataset. Unregistered names get an
// implicit in-memory dataset, so a pipeline can pass intermediate results
// around without declaring every dataset up front.
func (c *Catalog) Save(ctx context.Context, name string, value any) error {
	c.mu.Lock()
	ds, ok := c.datasets[name]
	if !ok {
		ds = NewMemoryDataSet()
		c.datasets[name] = ds
	}
	c.mu.Unlock()

	err := ds.Save(ctx, value)
	if err != nil {
		return errors.Wrapf(err, "unable to save dataset %q", name)
	}

	return nil
}

// Feed registers an in-memory dataset per entry, overwriting any existing
// registration. It mirrors handing a feed dict to a run.
func (c *Catalog) Feed(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, value := range values {
		c.datasets[name] = NewMemoryDataSetFrom(value)
	}
}

// List returns the sorted names of all registered datasets.
func (c *Catalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Describe returns the backend description of every registered dataset,
// including its layer when one is set.
func (c *Catalog) Describe() map[string]map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]string, len(c.datasets))
	for name, ds := range c.datasets {
		desc := ds.Describe()
		if layer, ok := c.layers[name]; ok {
			desc["layer"] = layer
		}
		out[name] = desc
	}

	return out
}
