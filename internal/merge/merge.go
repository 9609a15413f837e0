// Package merge combines extracted flow records from possibly-many files
// of the same flow type into one canonical fact table.
//
// The merge is two-phase. Within a single file, quantities for the same
// (date, document, item, article) group are summed: one document
// legitimately carries several line items for the same nomenclature.
// Across files, the maximum per-file sum wins, never the sum of sums:
// re-uploaded exports cover overlapping date ranges, and summing across
// files would inflate totals on every re-sync.
package merge

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkarpov/razborka/internal/model"
)

// Row is one canonical fact: a resolved quantity for a merge group.
type Row struct {
	Key      model.GroupKey
	Date     time.Time
	Document string // raw reference from the first file that contributed
	Quantity decimal.Decimal
}

// Table is the canonical, deduplicated fact table for one flow type.
type Table struct {
	Flow  model.FlowType
	rows  map[model.GroupKey]Row
	files int
}

// NewTable creates an empty canonical table.
func NewTable(flow model.FlowType) *Table {
	return &Table{Flow: flow, rows: make(map[model.GroupKey]Row)}
}

// AddFile merges one file's extracted records into the table: the file's
// records are first summed per group, then reconciled against other files
// by taking the maximum.
func (t *Table) AddFile(records []model.FlowRecord) {
	if len(records) == 0 {
		return
	}
	t.files++

	perFile := make(map[model.GroupKey]Row, len(records))
	for _, rec := range records {
		key := rec.Key()
		row, ok := perFile[key]
		if !ok {
			row = Row{Key: key, Date: rec.Date, Document: rec.Document}
		}
		row.Quantity = row.Quantity.Add(rec.Quantity)
		perFile[key] = row
	}

	for key, row := range perFile {
		existing, ok := t.rows[key]
		if !ok {
			t.rows[key] = row
			continue
		}
		if row.Quantity.GreaterThan(existing.Quantity) {
			existing.Quantity = row.Quantity
		}
		t.rows[key] = existing
	}
}

// Files returns how many files contributed records to the table.
func (t *Table) Files() int { return t.files }

// Len returns the number of canonical rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns all canonical rows ordered by date, document, item, article.
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Document != b.Document {
			return a.Document < b.Document
		}
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.Article < b.Article
	})
	return out
}

// Days returns the sorted set of observed dates.
func (t *Table) Days() []string {
	seen := make(map[string]struct{})
	for key := range t.rows {
		seen[key.Day] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Items returns the sorted set of item names in the table.
func (t *Table) Items() []string {
	seen := make(map[string]struct{})
	for key := range t.rows {
		if key.Item == "" {
			continue
		}
		seen[key.Item] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for item := range seen {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// QtyByDayItem rolls the table up to quantity per date per item,
// collapsing documents and articles.
func (t *Table) QtyByDayItem() map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal)
	for key, row := range t.rows {
		day, ok := out[key.Day]
		if !ok {
			day = make(map[string]decimal.Decimal)
			out[key.Day] = day
		}
		day[key.Item] = day[key.Item].Add(row.Quantity)
	}
	return out
}
