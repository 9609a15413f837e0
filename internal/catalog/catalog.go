// Package catalog loads and serves the item unit-price table.
//
// The catalog has an update-only lifecycle: reloading merges new and
// changed entries over the existing map, and entries absent from a newer
// file survive. Lookup falls back to a lower-cased shadow key so that
// nomenclature exported with inconsistent casing still resolves a price.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// FileName is the fixed name of the price workbook inside the data
// directory, as delivered from the ERP.
const FileName = "цена поступления номенклатуры.xlsx"

// dataStartRow is the first data row (0-indexed): the workbook carries a
// two-row banner above the price list.
const dataStartRow = 2

// Catalog maps item names to unit prices.
type Catalog struct {
	prices map[string]decimal.Decimal
	lower  map[string]decimal.Decimal
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		prices: make(map[string]decimal.Decimal),
		lower:  make(map[string]decimal.Decimal),
	}
}

// FromMap builds a catalog from explicit entries. Intended for tests.
func FromMap(entries map[string]decimal.Decimal) *Catalog {
	c := New()
	for item, price := range entries {
		c.set(item, price)
	}
	return c
}

// Load reads the price workbook. Unparseable or negative price rows are
// skipped while the rest of the file is kept; only a file-level failure
// returns an error.
func Load(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("failed to close price workbook", "file", path, "error", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("price workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read price sheet: %w", err)
	}

	c := New()
	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 2 {
			continue
		}
		item := strings.TrimSpace(row[0])
		if item == "" {
			continue
		}
		// Item name in the first column, price in the last.
		price, ok := parsePrice(row[len(row)-1])
		if !ok || price.IsNegative() {
			continue
		}
		c.set(item, price)
	}
	return c, nil
}

// Merge returns a new catalog with updates layered over c: new entries
// overwrite same-key old entries, unseen old entries survive. Neither
// input is mutated, so previously published snapshots stay valid.
func (c *Catalog) Merge(updates *Catalog) *Catalog {
	out := New()
	for item, price := range c.prices {
		out.set(item, price)
	}
	if updates != nil {
		for item, price := range updates.prices {
			out.set(item, price)
		}
	}
	return out
}

// Price resolves an item's unit price: exact match first, then the
// case-insensitive shadow map. Unknown items price at zero.
func (c *Catalog) Price(item string) (decimal.Decimal, bool) {
	item = strings.TrimSpace(item)
	if price, ok := c.prices[item]; ok {
		return price, true
	}
	if price, ok := c.lower[strings.ToLower(item)]; ok {
		return price, true
	}
	return decimal.Zero, false
}

// Len returns the number of priced items.
func (c *Catalog) Len() int { return len(c.prices) }

// Missing returns the sorted subset of items that resolve no price.
// This feeds the missing-price audit view.
func (c *Catalog) Missing(items []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		if _, ok := c.Price(item); !ok {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) set(item string, price decimal.Decimal) {
	c.prices[item] = price
	c.lower[strings.ToLower(item)] = price
}

func parsePrice(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
