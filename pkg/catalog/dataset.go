package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DataSet abstracts a storage backend for one named dataset.
type DataSet interface {
	// Load reads the current value of the dataset.
	Load(ctx context.Context) (any, error)
	// Save writes a new value to the dataset.
	Save(ctx context.Context, value any) error
	// Describe returns backend details for logging and visualisation.
	Describe() map[string]string
}

// MemoryDataSet keeps its value in process memory.
type MemoryDataSet struct {
	mu    sync.RWMutex
	value any
	set   bool
}

// NewMemoryDataSet creates an empty in-memory dataset. Loading it before
// the first save fails.
func NewMemoryDataSet() *MemoryDataSet {
	return &MemoryDataSet{}
}

// NewMemoryDataSetFrom creates an in-memory dataset holding the given
// value.
func NewMemoryDataSetFrom(value any) *MemoryDataSet {
	return &MemoryDataSet{value: value, set: true}
}

func (d *MemoryDataSet) Load(_ context.Context) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.set {
		return nil, ErrNotSaved
	}

	return d.value, nil
}

func (d *MemoryDataSet) Save(_ context.Context, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.value = value
	d.set = true

	return nil
}

func (d *MemoryDataSet) Describe() map[string]string {
	return map[string]string{"type": "memory"}
}

// LambdaDataSet delegates loading and saving to caller-supplied functions.
// Either function may be nil, in which case the operation fails.
type LambdaDataSet struct {
	LoadFn func(ctx context.Context) (any, error)
	SaveFn func(ctx context.Context, value any) error
}

func (d *LambdaDataSet) Load(ctx context.Context) (any, error) {
	if d.LoadFn == nil {
		return nil, errors.Wrap(ErrNotSupported, "load")
	}

	return d.LoadFn(ctx)
}

func (d *LambdaDataSet) Save(ctx context.Context, value any) error {
	if d.SaveFn == nil {
		return errors.Wrap(ErrNotSupported, "save")
	}

	return d.SaveFn(ctx, value)
}

func (d *LambdaDataSet) Describe() map[string]string {
	return map[string]string{"type": "lambda"}
}

// JSONDataSet stores its value as a JSON file. When versioned, every save
// writes <dir>/<version>/<base> and loads read the latest version.
type JSONDataSet struct {
	path      string
	versioned bool

	// now is swappable for tests.
	now func() time.Time
}

func NewJSONDataSet(path string, versioned bool) *JSONDataSet {
	return &JSONDataSet{path: path, versioned: versioned, now: time.Now}
}

// versionFormat orders lexicographically, so the latest version is the
// greatest directory name.
const versionFormat = "2006-01-02T15.04.05.000Z"

func (d *JSONDataSet) Load(_ context.Context) (any, error) {
	path := d.path
	if d.versioned {
		latest, err := d.latestVersion()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(filepath.Dir(d.path), latest, filepath.Base(d.path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotSaved, d.path)
		}

		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}

	return value, nil
}

func (d *JSONDataSet) Save(_ context.Context, value any) error {
	if value == nil {
		return ErrNilValue
	}

	path := d.path
	if d.versioned {
		version := d.now().UTC().Format(versionFormat)
		path = filepath.Join(filepath.Dir(d.path), version, filepath.Base(d.path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", path)
	}

	content, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "unable to encode value for %s", path)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return nil
}

func (d *JSONDataSet) latestVersion() (string, error) {
	entries, err := os.ReadDir(filepath.Dir(d.path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(ErrNotSaved, d.path)
		}

		return "", errors.Wrapf(err, "unable to list versions of %s", d.path)
	}

	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			versions = append(versions, entry.Name())
		}
	}
	if len(versions) == 0 {
		return "", errors.Wrap(ErrNotSaved, d.path)
	}
	sort.Strings(versions)

	return versions[len(versions)-1], nil
}

func (d *JSONDataSet) Describe() map[string]string {
	desc := map[string]string{"type": "json", "filepath": d.path}
	if d.versioned {
		desc["versioned"] = "true"
	}

	return desc
}

// CachedDataSet wraps another dataset with an in-memory cache. The first
// load hits the wrapped backend, later loads are served from memory; saves
// go to both.
type CachedDataSet struct {
	inner DataSet
	cache *MemoryDataSet
}

func NewCachedDataSet(inner DataSet) *CachedDataSet {
	return &CachedDataSet{inner: inner, cache: NewMemoryDataSet()}
}

func (d *CachedDataSet) Load(ctx context.Context) (any, error) {
	value, err := d.cache.Load(ctx)
	if err == nil {
		return value, nil
	}

	value, err = d.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Save(ctx, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (d *CachedDataSet) Save(ctx context.Context, value any) error {
	if err := d.inner.Save(ctx, value); err != nil {
		return err
	}

	return d.cache.Save(ctx, value)
}

func (d *CachedDataSet) Describe() map[string]string {
	desc := d.inner.Describe()
	desc["cached"] = "true"

	return desc
}
