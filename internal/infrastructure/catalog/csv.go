// Package catalog reads store catalog exports into catalog entries.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// Recognized header names, compared case-insensitively
const (
	columnName        = "name"
	columnPrice       = "price"
	columnSalePrice   = "sale_price"
	columnInStock     = "in_stock"
	columnLastUpdated = "last_updated"
)

var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ReadFile reads a CSV export for one store
func ReadFile(path, store string) (domain.StoreCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.StoreCatalog{}, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	catalog, err := Read(f, store)
	if err != nil {
		return domain.StoreCatalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// Read parses a header-driven CSV export. Only the name column is required;
// rows with an empty name are skipped. Unparseable stock flags and timestamps
// are left absent rather than failing the whole export.
func Read(r io.Reader, store string) (domain.StoreCatalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.StoreCatalog{}, fmt.Errorf("%w: empty export", domain.ErrInvalidCatalog)
		}
		return domain.StoreCatalog{}, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := columns[columnName]; !ok {
		return domain.StoreCatalog{}, fmt.Errorf("%w: missing %q column", domain.ErrInvalidCatalog, columnName)
	}

	cell := func(record []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	catalog := domain.StoreCatalog{Store: store}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.StoreCatalog{}, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
		}

		name := cell(record, columnName)
		if name == "" {
			continue
		}

		catalog.Entries = append(catalog.Entries, domain.CatalogEntry{
			Name:        name,
			Price:       cell(record, columnPrice),
			SalePrice:   cell(record, columnSalePrice),
			Store:       store,
			InStock:     parseBool(cell(record, columnInStock)),
			LastUpdated: parseTimestamp(cell(record, columnLastUpdated)),
		})
	}

	return catalog, nil
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "da", "yes", "y":
		v := true
		return &v
	case "ne", "no", "n":
		v := false
		return &v
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
