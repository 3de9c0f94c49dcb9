package usecase

import (
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/pricelens/backend/internal/vocabulary"
)

// unitSpacingPattern matches a number followed by a unit, with or without space
// between them: "500 g", "1,5 l", "10 kom", "1.000,0 ml".
var unitSpacingPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)*)\s*(kg|gr|g|ml|l|kos|kom|pcs)\b`)

// unitAliases maps unit spellings onto the fixed unit vocabulary
var unitAliases = map[string]string{
	"g":   "g",
	"gr":  "g",
	"kg":  "kg",
	"ml":  "ml",
	"l":   "l",
	"kos": "kos",
	"kom": "kos",
	"pcs": "kos",
}

// Normalizer turns raw product names into canonical lowercase token strings
type Normalizer struct {
	storeBrandPattern  *regexp.Regexp
	foldDiacritics     bool
	enableDebugLogging bool
}

// NewNormalizer creates a normalizer that removes the vocabulary's store brands
func NewNormalizer(vocab *vocabulary.Vocabulary, foldDiacritics, enableDebugLogging bool) *Normalizer {
	return &Normalizer{
		storeBrandPattern:  buildTermPattern(vocab.StoreBrands, foldDiacritics),
		foldDiacritics:     foldDiacritics,
		enableDebugLogging: enableDebugLogging,
	}
}

// buildTermPattern compiles a word-boundary alternation over terms, longest first.
// Go's \b is ASCII-only, so boundaries are spelled out to cover letters like š.
func buildTermPattern(terms []string, foldDiacritics bool) *regexp.Regexp {
	seen := make(map[string]bool)
	var alts []string
	for _, term := range terms {
		term = strings.TrimSpace(lowerText(term, foldDiacritics))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		alts = append(alts, strings.ReplaceAll(regexp.QuoteMeta(term), " ", `\s+`))
	}
	if len(alts) == 0 {
		return nil
	}

	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })

	return regexp.MustCompile(`(^|[^\p{L}\p{N}_])(?:` + strings.Join(alts, "|") + `)([^\p{L}\p{N}_]|$)`)
}

// Normalize lowercases the name, removes store brands, glues units to their
// numbers, strips punctuation and collapses whitespace. It never fails:
// a name without matchable content normalizes to "".
func (n *Normalizer) Normalize(rawName string) string {
	if strings.TrimSpace(rawName) == "" {
		return ""
	}

	s := lowerText(rawName, n.foldDiacritics)

	// Adjacent brands share a separator, so repeat until nothing is left to remove
	if n.storeBrandPattern != nil {
		for {
			next := n.storeBrandPattern.ReplaceAllString(s, "${1} ${2}")
			if next == s {
				break
			}
			s = next
		}
	}

	s = glueUnits(s)
	s = stripPunctuation(s)
	s = strings.Join(strings.Fields(s), " ")

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] Input: %q → Output: %q", rawName, s)
	}

	return s
}

// glueUnits rewrites "500 g" as "500g" and "1,5 L" as "1.5l"
func glueUnits(s string) string {
	return unitSpacingPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := unitSpacingPattern.FindStringSubmatch(match)
		unit := unitAliases[strings.ToLower(parts[2])]
		return decimalNumber(parts[1]) + unit
	})
}

// decimalNumber treats the last '.' or ',' as the decimal mark and drops the
// thousands separators before it: "1.000,0" becomes "1000.0".
func decimalNumber(s string) string {
	i := strings.LastIndexAny(s, ".,")
	if i < 0 {
		return s
	}
	whole := strings.NewReplacer(".", "", ",", "").Replace(s[:i])
	return whole + "." + s[i+1:]
}
