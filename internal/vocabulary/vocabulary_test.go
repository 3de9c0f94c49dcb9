package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	v := Default()

	assert.NotEmpty(t, v.Version)
	assert.Contains(t, v.Brands, "alpsko")
	assert.Contains(t, v.Brands, "activia")
	assert.Contains(t, v.StoreBrands, "spar")
	assert.Contains(t, v.Descriptors, "akcija")
}

func TestDefault_ListsAreDeduplicated(t *testing.T) {
	v := Default()

	for name, list := range map[string][]string{
		"store_brands": v.StoreBrands,
		"brands":       v.Brands,
		"descriptors":  v.Descriptors,
	} {
		seen := make(map[string]bool)
		for _, term := range list {
			assert.False(t, seen[term], "%s contains duplicate %q", name, term)
			seen[term] = true
		}
	}
}

func TestParse(t *testing.T) {
	t.Run("normalizes case, whitespace and duplicates", func(t *testing.T) {
		data := []byte(`
version: "test-1"
store_brands: ["SPAR", " spar ", "Mercator"]
brands: ["Coca  Cola", "coca cola", "", "Milka"]
descriptors: ["Novo", "novo"]
`)
		v, err := Parse(data)
		require.NoError(t, err)

		assert.Equal(t, "test-1", v.Version)
		assert.Equal(t, []string{"spar", "mercator"}, v.StoreBrands)
		assert.Equal(t, []string{"coca cola", "milka"}, v.Brands)
		assert.Equal(t, []string{"novo"}, v.Descriptors)
	})

	t.Run("requires version", func(t *testing.T) {
		_, err := Parse([]byte(`brands: ["milka"]`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("brands: [unterminated"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns embedded default", func(t *testing.T) {
		v, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Version, v.Version)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vocab.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: \"file-1\"\nbrands: [\"Argeta\"]\n"), 0o644))

		v, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "file-1", v.Version)
		assert.Equal(t, []string{"argeta"}, v.Brands)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
