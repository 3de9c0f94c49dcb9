package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/vocabulary"
)

// quantityPattern finds the first glued quantity token in a normalized name
var quantityPattern = regexp.MustCompile(`(?:^|\s)(\d+(?:\.\d+)?)(kg|g|ml|l|kos)(?:\s|$)`)

// minSignificantWordLength is the shortest token counted for word overlap
const minSignificantWordLength = 3

// FeatureExtractor derives quantity, unit, brand and significant words
type FeatureExtractor struct {
	brands      []string
	descriptors map[string]bool
}

// NewFeatureExtractor creates an extractor over the vocabulary's brands and descriptors
func NewFeatureExtractor(vocab *vocabulary.Vocabulary, foldDiacritics bool) *FeatureExtractor {
	seen := make(map[string]bool)
	brands := make([]string, 0, len(vocab.Brands))
	for _, b := range vocab.Brands {
		b = canonicalTerm(b, foldDiacritics)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		brands = append(brands, b)
	}

	descriptors := make(map[string]bool, len(vocab.Descriptors))
	for _, d := range vocab.Descriptors {
		for _, token := range strings.Fields(canonicalTerm(d, foldDiacritics)) {
			descriptors[token] = true
		}
	}

	return &FeatureExtractor{
		brands:      brands,
		descriptors: descriptors,
	}
}

// Extract derives ProductFeatures from a normalized name
func (e *FeatureExtractor) Extract(normalized string) domain.ProductFeatures {
	var features domain.ProductFeatures

	if m := quantityPattern.FindStringSubmatch(normalized); m != nil {
		features.Quantity, features.Unit = canonicalQuantity(m[1], m[2])
	}

	features.Brand = e.extractBrand(normalized)
	features.SignificantWords = e.significantWords(normalized)

	return features
}

// extractBrand returns the longest known brand contained in the name on token
// boundaries. Ties keep vocabulary order.
func (e *FeatureExtractor) extractBrand(normalized string) string {
	if normalized == "" {
		return ""
	}

	padded := " " + normalized + " "
	best := ""
	for _, brand := range e.brands {
		if len(brand) > len(best) && strings.Contains(padded, " "+brand+" ") {
			best = brand
		}
	}
	return best
}

// significantWords keeps tokens longer than two characters that are neither
// descriptors nor numeric/quantity tokens, deduplicated in first-seen order
func (e *FeatureExtractor) significantWords(normalized string) []string {
	tokens := strings.Fields(normalized)
	words := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))

	for _, token := range tokens {
		if utf8.RuneCountInString(token) < minSignificantWordLength {
			continue
		}
		if e.descriptors[token] || containsDigit(token) || seen[token] {
			continue
		}
		seen[token] = true
		words = append(words, token)
	}
	return words
}

// canonicalQuantity expresses mass and volume in the largest unit that keeps the
// value at or above one (500 g, 1.5 kg, 330 ml, 1 l), so the same pack size
// compares equal however the store spelled it
func canonicalQuantity(value, unit string) (string, string) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value, unit
	}

	switch unit {
	case "kg":
		v, unit = v*1000, "g"
	case "l":
		v, unit = v*1000, "ml"
	}

	switch {
	case unit == "g" && v >= 1000:
		v, unit = v/1000, "kg"
	case unit == "ml" && v >= 1000:
		v, unit = v/1000, "l"
	}

	v = math.Round(v*1e6) / 1e6
	return strconv.FormatFloat(v, 'f', -1, 64), unit
}
