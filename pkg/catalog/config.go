package catalog

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Entry is one dataset declaration in a catalog file.
//
//	companies:
//	  type: json
//	  filepath: data/01_raw/companies.json
//	  versioned: true
//	  layer: raw
type Entry struct {
	Type      string `yaml:"type"`
	Filepath  string `yaml:"filepath,omitempty"`
	Versioned bool   `yaml:"versioned,omitempty"`
	Layer     string `yaml:"layer,omitempty"`
	DataSet   *Entry `yaml:"dataset,omitempty"` // wrapped entry for cached datasets
}

// LoadFile reads a YAML catalog file and builds the catalog it declares.
func LoadFile(filename string) (*Catalog, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read catalog file %s", filename)
	}

	return Parse(content)
}

// Parse builds a catalog from YAML content mapping dataset names to
// entries.
func Parse(content []byte) (*Catalog, error) {
	var entries map[string]Entry
	if err := yaml.Unmarshal(content, &entries); err != nil {
		return nil, errors.Wrap(err, "unable to decode catalog")
	}

	cat := New()
	for name, entry := range entries {
		ds, err := build(name, entry)
		if err != nil {
			return nil, err
		}
		if err := cat.Add(name, ds); err != nil {
			return nil, err
		}
		if entry.Layer != "" {
			cat.SetLayer(name, entry.Layer)
		}
	}

	return cat, nil
}

func build(name string, entry Entry) (DataSet, error) {
	switch entry.Type {
	case "", "memory":
		return NewMemoryDataSet(), nil
	case "json":
		if entry.Filepath == "" {
			return nil, errors.Errorf("dataset %q: json datasets need a filepath", name)
		}

		return NewJSONDataSet(entry.Filepath, entry.Versioned), nil
	case "cached":
		if entry.DataSet == nil {
			return nil, errors.Errorf("dataset %q: cached datasets need a wrapped dataset", name)
		}
		inner, err := build(name, *entry.DataSet)
		if err != nil {
			return nil, err
		}

		return NewCachedDataSet(inner), nil
	default:
		return nil, errors.Errorf("dataset %q: unknown dataset type %q", name, entry.Type)
	}
}
