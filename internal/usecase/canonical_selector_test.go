package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

var testStores = []string{"spar", "mercator", "tus"}

func TestCanonicalize(t *testing.T) {
	selector := NewCanonicalSelector(testStores, NewPriceParser(0), CanonicalLongest)

	t.Run("longest name, cheapest store and spread", func(t *testing.T) {
		record, err := selector.Canonicalize(domain.MatchGroup{Members: alpskoEntries()})
		require.NoError(t, err)

		assert.Equal(t, "Alpsko mleko poltrajno 1L", record.CanonicalName)
		assert.Equal(t, "tus", record.CheapestStore)
		assert.Equal(t, "spar", record.MostExpensiveStore)
		assert.InDelta(t, 0.10, record.Spread, 1e-9)
		assert.Equal(t, 3, record.MemberCount)

		require.Len(t, record.Prices, 3)
		for i, store := range testStores {
			assert.Equal(t, store, record.Prices[i].Store)
		}
		price, ok := record.PriceFor("mercator")
		assert.True(t, ok)
		assert.Equal(t, 1.25, price)
	})

	t.Run("first member wins a name length tie", func(t *testing.T) {
		record, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			analyze("tus", "Alpsko mleko 1L", "1.19"),
			analyze("spar", "Mleko Alpsko 1L", "1.29"),
		}})
		require.NoError(t, err)
		assert.Equal(t, "Alpsko mleko 1L", record.CanonicalName)
	})

	t.Run("store priority policy", func(t *testing.T) {
		selector := NewCanonicalSelector(testStores, NewPriceParser(0), CanonicalStorePriority)
		members := alpskoEntries()
		members[0], members[2] = members[2], members[0]

		record, err := selector.Canonicalize(domain.MatchGroup{Members: members})
		require.NoError(t, err)
		assert.Equal(t, "Mleko Alpsko 3.5% 1L", record.CanonicalName)
	})

	t.Run("absent store and unparseable price leave empty cells", func(t *testing.T) {
		record, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			analyze("spar", "Jogurt Activia 150g", "ni podatka"),
			analyze("tus", "Activia Jogurt Natural 150g", "0,79 €"),
		}})
		require.NoError(t, err)

		assert.Nil(t, record.Prices[0].Price)
		assert.Equal(t, "Jogurt Activia 150g", record.Prices[0].RawName)
		assert.Nil(t, record.Prices[1].Price)
		assert.Empty(t, record.Prices[1].RawName)
		require.NotNil(t, record.Prices[2].Price)
		assert.Equal(t, 0.79, *record.Prices[2].Price)

		assert.Equal(t, "tus", record.CheapestStore)
		assert.Equal(t, 0.0, record.Spread)
	})

	t.Run("no parseable prices", func(t *testing.T) {
		record, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			analyze("spar", "Jogurt Activia 150g", ""),
			analyze("tus", "Activia Jogurt Natural 150g", ""),
		}})
		require.NoError(t, err)
		assert.Empty(t, record.CheapestStore)
		assert.Equal(t, 0.0, record.Spread)
	})

	t.Run("ties go to the earliest configured store", func(t *testing.T) {
		record, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			analyze("tus", "Alpsko mleko 1L", "1.19"),
			analyze("mercator", "Alpsko mleko 1L", "1.19"),
		}})
		require.NoError(t, err)
		assert.Equal(t, "mercator", record.CheapestStore)
		assert.Equal(t, "mercator", record.MostExpensiveStore)
		assert.Equal(t, 0.0, record.Spread)
	})

	t.Run("sale price is displayed and flagged", func(t *testing.T) {
		sale := analyze("spar", "Alpsko mleko 1L", "1,29 €")
		sale.Entry.SalePrice = "0,99 €"

		record, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			sale,
			analyze("tus", "Alpsko mleko 1L", "1,19 €"),
		}})
		require.NoError(t, err)
		assert.Equal(t, "spar", record.CheapestStore)
		assert.Equal(t, []string{"spar"}, record.OnSaleStores())
		assert.InDelta(t, 0.20, record.Spread, 1e-9)
	})

	t.Run("duplicate store is an integrity violation", func(t *testing.T) {
		_, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			analyze("spar", "Alpsko mleko 1L", "1.29"),
			analyze("spar", "Alpsko mleko 1L", "1.19"),
		}})
		assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := selector.Canonicalize(domain.MatchGroup{Members: []domain.AnalyzedEntry{
			analyze("lidl", "Alpsko mleko 1L", "1.29"),
		}})
		assert.ErrorIs(t, err, domain.ErrUnknownStore)
	})

	t.Run("empty group", func(t *testing.T) {
		_, err := selector.Canonicalize(domain.MatchGroup{})
		assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	})
}
