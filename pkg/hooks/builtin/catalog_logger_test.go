package builtin_test

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipevine/pipevine/pkg/catalog"
	"github.com/pipevine/pipevine/pkg/hooks"
	"github.com/pipevine/pipevine/pkg/hooks/builtin"
)

func TestCatalogLogger(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	require.NoError(t, cat.Add("companies", catalog.NewMemoryDataSet()))
	require.NoError(t, cat.Add("reviews", catalog.NewMemoryDataSet()))
	cat.SetLayer("companies", "raw")

	var buf bytes.Buffer
	hook := &builtin.CatalogLogger{Logger: log.New(&buf, "", 0)}

	err := hook.AfterCatalogCreated(context.Background(), &hooks.CatalogCreated{Catalog: cat})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "catalog: companies (layer=raw type=memory)")
	assert.Contains(t, out, "catalog: reviews (type=memory)")
}

func TestCatalogLoggerEmptyCatalog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	hook := &builtin.CatalogLogger{Logger: log.New(&buf, "", 0)}

	err := hook.AfterCatalogCreated(context.Background(), &hooks.CatalogCreated{Catalog: catalog.New()})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
