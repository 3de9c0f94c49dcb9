// Package vocabulary holds the curated word lists used by product matching:
// store and private-label names, product brands, and descriptor stopwords.
// The lists ship as a versioned YAML asset and may be replaced from a file.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultAsset []byte

// Vocabulary is a deduplicated, lowercase set of matching word lists
type Vocabulary struct {
	Version     string   `yaml:"version"`
	StoreBrands []string `yaml:"store_brands"`
	Brands      []string `yaml:"brands"`
	Descriptors []string `yaml:"descriptors"`
}

// Default returns the embedded vocabulary
func Default() *Vocabulary {
	v, err := Parse(defaultAsset)
	if err != nil {
		panic(fmt.Sprintf("vocabulary: embedded asset is invalid: %v", err))
	}
	return v
}

// Load reads a vocabulary from a YAML file. An empty path returns the embedded default.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}

	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes a YAML vocabulary, lowercasing and deduplicating every list
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}

	v.Version = strings.TrimSpace(v.Version)
	if v.Version == "" {
		return nil, fmt.Errorf("vocabulary version is required")
	}

	v.StoreBrands = clean(v.StoreBrands)
	v.Brands = clean(v.Brands)
	v.Descriptors = clean(v.Descriptors)

	return &v, nil
}

// clean lowercases, trims and deduplicates terms, preserving first-seen order.
// Internal whitespace is collapsed so "coca  cola" and "coca cola" are one term.
func clean(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.Join(strings.Fields(strings.ToLower(term)), " ")
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}
