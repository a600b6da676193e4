package builtin

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/pipevine/pipevine/pkg/hooks"
)

// CatalogLogger logs the catalog's contents once the catalog is created.
type CatalogLogger struct {
	Logger *log.Logger
}

func (h *CatalogLogger) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}

	return log.Default()
}

func (h *CatalogLogger) AfterCatalogCreated(_ context.Context, event *hooks.CatalogCreated) error {
	for _, name := range event.Catalog.List() {
		ds, err := event.Catalog.Get(name)
		if err != nil {
			return err
		}

		desc := ds.Describe()
		parts := make([]string, 0, len(desc))
		for key, value := range desc {
			parts = append(parts, key+"="+value)
		}
		if layer, ok := event.Catalog.Layer(name); ok {
			parts = append(parts, "layer="+layer)
		}
		sort.Strings(parts)

		h.logger().Printf("catalog: %s (%s)", name, strings.Join(parts, " "))
	}

	return nil
}

var _ hooks.AfterCatalogCreatedHook = (*CatalogLogger)(nil)
