package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkarpov/razborka/internal/catalog"
	"github.com/mkarpov/razborka/internal/common"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/merge"
	"github.com/mkarpov/razborka/internal/model"
)

// Item is one nomenclature line in a detail or summary view.
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// Detail lists a single date's movements for one flow type.
type Detail struct {
	Date  string         `json:"date"`
	Flow  model.FlowType `json:"flow"`
	Items []Item         `json:"items"`
}

// FlowDetail returns the per-item breakdown of one flow on one date,
// ordered by the requested field ("cost" or quantity) descending.
func FlowDetail(l *ledger.Ledger, cat *catalog.Catalog, day string, flow model.FlowType, orderBy string) (Detail, error) {
	out := Detail{Date: day, Flow: flow, Items: []Item{}}
	valid := false
	for _, f := range model.Flows() {
		if f == flow {
			valid = true
		}
	}
	if !valid {
		return out, fmt.Errorf("%w: %q", common.ErrUnknownFlow, flow)
	}

	d, ok := l.Day(day)
	if !ok {
		return out, nil
	}
	out.Items = items(d.Flows[flow], cat)
	if orderBy == "cost" {
		sort.SliceStable(out.Items, func(i, j int) bool { return out.Items[i].Cost > out.Items[j].Cost })
	}
	return out, nil
}

// FullDetailRow is one item's complete position on one date.
type FullDetailRow struct {
	Name             string  `json:"name"`
	BalanceStart     float64 `json:"balance_start"`
	BalanceStartCost float64 `json:"balance_start_cost"`
	InQty            float64 `json:"in_qty"`
	InCost           float64 `json:"in_cost"`
	IngredientsQty   float64 `json:"ingredients_qty"`
	IngredientsCost  float64 `json:"ingredients_cost"`
	OutQty           float64 `json:"out_qty"`
	OutCost          float64 `json:"out_cost"`
	InternalQty      float64 `json:"internal_qty"`
	InternalCost     float64 `json:"internal_cost"`
	BalanceEnd       float64 `json:"balance_end"`
	BalanceEndCost   float64 `json:"balance_end_cost"`
}

// FullDetail is the complete per-item picture of one date.
type FullDetail struct {
	Date  string          `json:"date"`
	Items []FullDetailRow `json:"items"`
}

// BuildFullDetail assembles every item touching the date: carried
// balances and all four flows.
func BuildFullDetail(l *ledger.Ledger, cat *catalog.Catalog, day string) FullDetail {
	out := FullDetail{Date: day, Items: []FullDetailRow{}}
	d, ok := l.Day(day)
	if !ok {
		return out
	}

	names := make(map[string]struct{})
	for item := range d.BalanceStart {
		names[item] = struct{}{}
	}
	for item := range d.BalanceEnd {
		names[item] = struct{}{}
	}
	for _, flow := range model.Flows() {
		for item := range d.Flows[flow] {
			names[item] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for item := range names {
		sorted = append(sorted, item)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		row := FullDetailRow{
			Name:             name,
			BalanceStart:     f(d.BalanceStart[name]),
			BalanceStartCost: f(itemCost(name, d.BalanceStart[name], cat)),
			InQty:            f(d.Flows[model.FlowInbound][name]),
			InCost:           f(itemCost(name, d.Flows[model.FlowInbound][name], cat)),
			IngredientsQty:   f(d.Flows[model.FlowIngredients][name]),
			IngredientsCost:  f(itemCost(name, d.Flows[model.FlowIngredients][name], cat)),
			OutQty:           f(d.Flows[model.FlowOutbound][name]),
			OutCost:          f(itemCost(name, d.Flows[model.FlowOutbound][name], cat)),
			InternalQty:      f(d.Flows[model.FlowInternal][name]),
			InternalCost:     f(itemCost(name, d.Flows[model.FlowInternal][name], cat)),
			BalanceEnd:       f(d.BalanceEnd[name]),
			BalanceEndCost:   f(itemCost(name, d.BalanceEnd[name], cat)),
		}
		out.Items = append(out.Items, row)
	}
	return out
}

// Summary is the top-movers digest for a period.
type Summary struct {
	Period      string `json:"period"`
	In          []Item `json:"in"`
	Ingredients []Item `json:"ingredients"`
	Out         []Item `json:"out"`
	Internal    []Item `json:"internal"`
}

// BuildSummary aggregates per-item quantities over the period and keeps
// the top movers per flow. Period is "week" (the 7 calendar days ending
// at the latest observed date), "month" (the calendar month of the latest
// observed date) or "all".
func BuildSummary(l *ledger.Ledger, cat *catalog.Catalog, period string, topIn, topInternal, topOut int) (Summary, error) {
	out := Summary{
		Period:      period,
		In:          []Item{},
		Ingredients: []Item{},
		Out:         []Item{},
		Internal:    []Item{},
	}
	if l.Empty() {
		return out, nil
	}

	last := l.Days[len(l.Days)-1].Date
	var include func(t time.Time) bool
	switch period {
	case "week":
		cutoff := last.AddDate(0, 0, -6)
		include = func(t time.Time) bool { return !t.Before(cutoff) }
	case "month":
		include = func(t time.Time) bool {
			return t.Year() == last.Year() && t.Month() == last.Month()
		}
	case "all", "":
		include = func(time.Time) bool { return true }
	default:
		return out, fmt.Errorf("unknown period %q", period)
	}

	totals := make(map[model.FlowType]map[string]decimal.Decimal, 4)
	for _, flow := range model.Flows() {
		totals[flow] = make(map[string]decimal.Decimal)
	}
	for _, day := range l.Days {
		if !include(day.Date) {
			continue
		}
		for _, flow := range model.Flows() {
			for item, qty := range day.Flows[flow] {
				totals[flow][item] = totals[flow][item].Add(qty)
			}
		}
	}

	out.In = top(items(totals[model.FlowInbound], cat), topIn)
	out.Ingredients = top(items(totals[model.FlowIngredients], cat), topIn)
	out.Out = top(items(totals[model.FlowOutbound], cat), topOut)
	out.Internal = top(items(totals[model.FlowInternal], cat), topInternal)
	return out, nil
}

// MissingPrices lists items seen in flow data that resolve no price.
func MissingPrices(tables map[model.FlowType]*merge.Table, cat *catalog.Catalog) []string {
	missing := cat.Missing(allItems(tables))
	if missing == nil {
		missing = []string{}
	}
	return missing
}

// Nomenclature lists every distinct item across the canonical tables.
func Nomenclature(tables map[model.FlowType]*merge.Table) []string {
	return allItems(tables)
}

// Sources summarizes the merged inputs per flow type, in prefix order.
func Sources(tables map[model.FlowType]*merge.Table) []model.SourceInfo {
	flows := []model.FlowType{model.FlowInternal, model.FlowOutbound, model.FlowInbound, model.FlowIngredients}
	out := make([]model.SourceInfo, 0, len(flows))
	for _, flow := range flows {
		info := model.SourceInfo{Flow: flow, Label: flow.Label()}
		if t := tables[flow]; t != nil {
			info.Files = t.Files()
			info.Rows = t.Len()
			info.Dates = len(t.Days())
		}
		out = append(out, info)
	}
	return out
}

func allItems(tables map[model.FlowType]*merge.Table) []string {
	seen := make(map[string]struct{})
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, item := range t.Items() {
			seen[item] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for item := range seen {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// items converts a per-item quantity map into wire items ordered by
// quantity descending, name ascending on ties.
func items(m map[string]decimal.Decimal, cat *catalog.Catalog) []Item {
	out := make([]Item, 0, len(m))
	for name, qty := range m {
		out = append(out, Item{
			Name:     name,
			Quantity: f(qty),
			Cost:     f(itemCost(name, qty, cat)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func top(list []Item, n int) []Item {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}

func itemCost(name string, qty decimal.Decimal, cat *catalog.Catalog) decimal.Decimal {
	if cat == nil {
		return decimal.Zero
	}
	price, ok := cat.Price(name)
	if !ok {
		return decimal.Zero
	}
	return qty.Mul(price).Round(2)
}
