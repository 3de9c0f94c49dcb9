package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func TestRead(t *testing.T) {
	t.Run("reads all recognized columns", func(t *testing.T) {
		data := "Name,Price,Sale_Price,In_Stock,Last_Updated\n" +
			"\"Alpsko mleko 1l 3,5%\",\"1,25 €\",,true,2024-05-01\n" +
			"Jogurt Activia 150g,\"0,89 €\",\"0,69 €\",ne,2024-05-01T08:00:00Z\n"

		catalog, err := Read(strings.NewReader(data), "mercator")
		require.NoError(t, err)

		assert.Equal(t, "mercator", catalog.Store)
		require.Len(t, catalog.Entries, 2)

		first := catalog.Entries[0]
		assert.Equal(t, "Alpsko mleko 1l 3,5%", first.Name)
		assert.Equal(t, "1,25 €", first.Price)
		assert.Equal(t, "", first.SalePrice)
		assert.Equal(t, "mercator", first.Store)
		require.NotNil(t, first.InStock)
		assert.True(t, *first.InStock)
		require.NotNil(t, first.LastUpdated)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *first.LastUpdated)

		second := catalog.Entries[1]
		assert.Equal(t, "0,69 €", second.SalePrice)
		require.NotNil(t, second.InStock)
		assert.False(t, *second.InStock)
	})

	t.Run("only name is required", func(t *testing.T) {
		catalog, err := Read(strings.NewReader("name\nMleko 1L\n\n"), "spar")
		require.NoError(t, err)
		require.Len(t, catalog.Entries, 1)
		assert.Nil(t, catalog.Entries[0].InStock)
		assert.Nil(t, catalog.Entries[0].LastUpdated)
	})

	t.Run("skips rows without a name", func(t *testing.T) {
		catalog, err := Read(strings.NewReader("name,price\n,1.00\nMleko,1.29\n"), "spar")
		require.NoError(t, err)
		assert.Len(t, catalog.Entries, 1)
	})

	t.Run("garbage stock flag and timestamp stay absent", func(t *testing.T) {
		catalog, err := Read(strings.NewReader("name,in_stock,last_updated\nMleko,maybe,yesterday\n"), "spar")
		require.NoError(t, err)
		assert.Nil(t, catalog.Entries[0].InStock)
		assert.Nil(t, catalog.Entries[0].LastUpdated)
	})

	t.Run("missing name column", func(t *testing.T) {
		_, err := Read(strings.NewReader("title,price\nMleko,1.29\n"), "spar")
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})

	t.Run("empty export", func(t *testing.T) {
		_, err := Read(strings.NewReader(""), "spar")
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tus.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,price\nAlpsko mleko poltrajno 1L,\"1,19 €\"\n"), 0o644))

	catalog, err := ReadFile(path, "tus")
	require.NoError(t, err)
	require.Len(t, catalog.Entries, 1)
	assert.Equal(t, "tus", catalog.Entries[0].Store)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"), "tus")
	assert.Error(t, err)
}
