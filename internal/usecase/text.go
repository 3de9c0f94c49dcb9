package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no canonical decomposition, so NFD folding alone leaves it in place
var stroke = strings.NewReplacer("đ", "dj")

// lowerText lowercases s and optionally folds diacritics (č → c, š → s).
// Casers and transformers are stateful, so fresh ones are built per call.
func lowerText(s string, foldDiacritics bool) string {
	s = cases.Lower(language.Und).String(s)
	if !foldDiacritics {
		return norm.NFC.String(s)
	}

	s = stroke.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return norm.NFC.String(s)
	}
	return folded
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// stripPunctuation replaces every rune that is neither a word character nor
// whitespace with a space. A '.' or ',' between two digits is kept as '.' so
// decimal quantities such as "1,5l" survive as "1.5l".
func stripPunctuation(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i, r := range rs {
		switch {
		case isWordRune(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case (r == '.' || r == ',') && i > 0 && i < len(rs)-1 &&
			unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]):
			b.WriteRune('.')
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// canonicalTerm brings a vocabulary term into the same shape as a normalized name
func canonicalTerm(term string, foldDiacritics bool) string {
	return strings.Join(strings.Fields(stripPunctuation(lowerText(term, foldDiacritics))), " ")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
