package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// DefaultMaxPlausiblePrice is the exclusive upper bound for a grocery price.
// Four-figure values are almost always a parsing artifact (thousands separator,
// concatenated unit price).
const DefaultMaxPlausiblePrice = 1000.0

// PriceParser reads locale-formatted price text such as "1,29 €"
type PriceParser struct {
	maxPlausible float64
}

// NewPriceParser creates a parser rejecting prices at or above maxPlausible
func NewPriceParser(maxPlausible float64) *PriceParser {
	if maxPlausible <= 0 {
		maxPlausible = DefaultMaxPlausiblePrice
	}
	return &PriceParser{maxPlausible: maxPlausible}
}

// Parse returns the numeric price and whether it is usable. Malformed or
// implausible text is reported as absent, never as an error.
func (p *PriceParser) Parse(text string) (float64, bool) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), ".,")
	if s == "" {
		return 0, false
	}

	// With both separators present the last one is the decimal mark
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if value <= 0 || value >= p.maxPlausible {
		return 0, false
	}
	return roundCents(value), true
}

// Displayed returns the price a shopper sees: the sale price when it is
// present and lower than the regular price, the regular price otherwise.
// ok is false when the regular price is absent or unparseable.
func (p *PriceParser) Displayed(entry domain.CatalogEntry) (price float64, onSale bool, ok bool) {
	regular, ok := p.Parse(entry.Price)
	if !ok {
		return 0, false, false
	}
	if sale, saleOK := p.Parse(entry.SalePrice); saleOK && sale < regular {
		return sale, true, true
	}
	return regular, false, true
}

// IsOnSale reports whether the entry carries a valid sale price
func (p *PriceParser) IsOnSale(entry domain.CatalogEntry) bool {
	_, onSale, _ := p.Displayed(entry)
	return onSale
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
