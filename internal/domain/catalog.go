package domain

import "time"

// CatalogEntry is one listing from one store at one scrape time.
// Price fields hold the raw store text; parsing happens downstream so that a
// malformed price never prevents the entry from being matched.
type CatalogEntry struct {
	Name        string     `json:"name" binding:"required"`
	Price       string     `json:"price"`
	SalePrice   string     `json:"salePrice,omitempty"`
	Store       string     `json:"store"`
	InStock     *bool      `json:"inStock,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// StoreCatalog is the ordered list of entries scraped from a single store
type StoreCatalog struct {
	Store   string         `json:"store" binding:"required"`
	Entries []CatalogEntry `json:"entries"`
}

// ProductFeatures are the structured signals derived from a normalized name.
// Empty Quantity/Unit means the size is unspecified, which is distinct from a
// known but different size.
type ProductFeatures struct {
	Quantity         string   `json:"quantity,omitempty"`
	Unit             string   `json:"unit,omitempty"`
	Brand            string   `json:"brand,omitempty"`
	SignificantWords []string `json:"significantWords"`
}

// HasQuantity reports whether a pack size was detected
func (f ProductFeatures) HasQuantity() bool {
	return f.Quantity != "" && f.Unit != ""
}

// SameQuantity reports whether both value and unit are equal
func (f ProductFeatures) SameQuantity(other ProductFeatures) bool {
	return f.Quantity == other.Quantity && f.Unit == other.Unit
}

// Size returns the glued quantity and unit, e.g. "500g"
func (f ProductFeatures) Size() string {
	if !f.HasQuantity() {
		return ""
	}
	return f.Quantity + f.Unit
}

// AnalyzedEntry is a CatalogEntry with its derived matching data
type AnalyzedEntry struct {
	Entry      CatalogEntry
	Normalized string
	Features   ProductFeatures
}

// MatchGroup is a cluster of entries from distinct stores believed to be the
// same physical product. Members[0] is the seed that opened the group.
type MatchGroup struct {
	Members []AnalyzedEntry
}

// Seed returns the entry that opened the group
func (g *MatchGroup) Seed() AnalyzedEntry {
	return g.Members[0]
}

// HasStore reports whether a member from the given store is already present
func (g *MatchGroup) HasStore(store string) bool {
	for _, m := range g.Members {
		if m.Entry.Store == store {
			return true
		}
	}
	return false
}

// Stores returns member stores in member order
func (g *MatchGroup) Stores() []string {
	stores := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		stores = append(stores, m.Entry.Store)
	}
	return stores
}
