package usecase

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pricelens/backend/internal/domain"
)

// Fixed column names of the comparison export
const (
	ColumnCanonicalName = "canonical_name"
	ColumnCheapestStore = "cheapest_store"
	ColumnPriceSpread   = "price_spread"
	priceColumnPrefix   = "price_"
)

// ComparisonEmitter serializes comparison records with one price column per store
type ComparisonEmitter struct {
	stores []string
}

// NewComparisonEmitter creates an emitter whose price columns follow stores order
func NewComparisonEmitter(stores []string) *ComparisonEmitter {
	return &ComparisonEmitter{stores: stores}
}

// Header returns the column set: name, one price per store, cheapest store, spread
func (e *ComparisonEmitter) Header() []string {
	header := make([]string, 0, len(e.stores)+3)
	header = append(header, ColumnCanonicalName)
	for _, s := range e.stores {
		header = append(header, priceColumnPrefix+s)
	}
	return append(header, ColumnCheapestStore, ColumnPriceSpread)
}

// Row renders one record as CSV cells; absent prices are empty cells
func (e *ComparisonEmitter) Row(record domain.ComparisonRecord) []string {
	row := make([]string, 0, len(e.stores)+3)
	row = append(row, record.CanonicalName)
	for _, s := range e.stores {
		if price, ok := record.PriceFor(s); ok {
			row = append(row, formatPrice(price))
		} else {
			row = append(row, "")
		}
	}
	return append(row, record.CheapestStore, formatPrice(record.Spread))
}

// WriteCSV writes the header and one row per record
func (e *ComparisonEmitter) WriteCSV(w io.Writer, records []domain.ComparisonRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(e.Row(r)); err != nil {
			return fmt.Errorf("failed to write row %q: %w", r.CanonicalName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Objects renders records as row objects keyed by the CSV column names, with
// numeric prices and null for absent ones, for spreadsheet/table uploads
func (e *ComparisonEmitter) Objects(records []domain.ComparisonRecord) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		row := map[string]interface{}{
			ColumnCanonicalName: r.CanonicalName,
			ColumnCheapestStore: r.CheapestStore,
			ColumnPriceSpread:   r.Spread,
		}
		for _, s := range e.stores {
			if price, ok := r.PriceFor(s); ok {
				row[priceColumnPrefix+s] = price
			} else {
				row[priceColumnPrefix+s] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteJSON writes the row objects as an indented JSON array
func (e *ComparisonEmitter) WriteJSON(w io.Writer, records []domain.ComparisonRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e.Objects(records))
}

// FilterOnSale keeps records where at least one store shows a sale price
func FilterOnSale(records []domain.ComparisonRecord) []domain.ComparisonRecord {
	filtered := make([]domain.ComparisonRecord, 0, len(records))
	for _, r := range records {
		if len(r.OnSaleStores()) > 0 {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
