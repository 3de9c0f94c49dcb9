package usecase

import (
	"fmt"
	"unicode/utf8"

	"github.com/pricelens/backend/internal/domain"
)

// CanonicalSelector turns a match group into a comparison record
type CanonicalSelector struct {
	stores     []string
	storeIndex map[string]int
	prices     *PriceParser
	policy     CanonicalNamePolicy
}

// NewCanonicalSelector creates a selector emitting one price cell per store, in store order
func NewCanonicalSelector(stores []string, prices *PriceParser, policy CanonicalNamePolicy) *CanonicalSelector {
	index := make(map[string]int, len(stores))
	for i, s := range stores {
		index[s] = i
	}
	if policy == "" {
		policy = CanonicalLongest
	}

	return &CanonicalSelector{
		stores:     stores,
		storeIndex: index,
		prices:     prices,
		policy:     policy,
	}
}

// Canonicalize picks the display name and per-store prices of a group.
// Two members from one store is an integrity violation and is returned as an error.
func (c *CanonicalSelector) Canonicalize(group domain.MatchGroup) (domain.ComparisonRecord, error) {
	if len(group.Members) == 0 {
		return domain.ComparisonRecord{}, fmt.Errorf("%w: empty group", domain.ErrIntegrityViolation)
	}

	byStore := make(map[string]domain.AnalyzedEntry, len(group.Members))
	for _, m := range group.Members {
		if _, ok := c.storeIndex[m.Entry.Store]; !ok {
			return domain.ComparisonRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownStore, m.Entry.Store)
		}
		if _, dup := byStore[m.Entry.Store]; dup {
			return domain.ComparisonRecord{}, fmt.Errorf("%w: store %q appears twice in group %q",
				domain.ErrIntegrityViolation, m.Entry.Store, group.Members[0].Entry.Name)
		}
		byStore[m.Entry.Store] = m
	}

	record := domain.ComparisonRecord{
		CanonicalName: c.canonicalName(group),
		Prices:        make([]domain.StorePrice, 0, len(c.stores)),
		MemberCount:   len(group.Members),
	}

	var low, high float64
	for _, store := range c.stores {
		cell := domain.StorePrice{Store: store}

		if m, ok := byStore[store]; ok {
			cell.RawName = m.Entry.Name
			if price, onSale, ok := c.prices.Displayed(m.Entry); ok {
				cell.Price = &price
				cell.OnSale = onSale

				// Strict comparisons keep the earliest configured store on ties
				if record.CheapestStore == "" || price < low {
					low, record.CheapestStore = price, store
				}
				if record.MostExpensiveStore == "" || price > high {
					high, record.MostExpensiveStore = price, store
				}
			}
		}

		record.Prices = append(record.Prices, cell)
	}

	if record.CheapestStore != "" {
		record.Spread = roundCents(high - low)
	}

	return record, nil
}

func (c *CanonicalSelector) canonicalName(group domain.MatchGroup) string {
	best := group.Members[0]

	for _, m := range group.Members[1:] {
		switch c.policy {
		case CanonicalStorePriority:
			if c.storeIndex[m.Entry.Store] < c.storeIndex[best.Entry.Store] {
				best = m
			}
		default:
			if utf8.RuneCountInString(m.Entry.Name) > utf8.RuneCountInString(best.Entry.Name) {
				best = m
			}
		}
	}

	return best.Entry.Name
}
