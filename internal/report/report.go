// Package report builds the read-side projections over a published
// refresh snapshot: the grouped stats report, per-date details, top-N
// summaries and the price audit views. All views are pure functions of
// the ledger, catalog and canonical tables; they never mutate them.
package report

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mkarpov/razborka/internal/catalog"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/model"
)

// Check status values for a reconciled balance.
const (
	CheckShortage = "shortage"
	CheckSurplus  = "surplus"
	CheckOK       = "ok"
)

// Row is one bucket of the grouped stats report. Field names follow the
// dashboard contract.
type Row struct {
	Date             string   `json:"date"`
	InQty            float64  `json:"in_qty"`
	InCost           float64  `json:"in_cost"`
	IngredientsQty   float64  `json:"ingredients_qty"`
	IngredientsCost  float64  `json:"ingredients_cost"`
	OutQty           float64  `json:"out_qty"`
	OutCost          float64  `json:"out_cost"`
	InternalQty      float64  `json:"internal_qty"`
	InternalCost     float64  `json:"internal_cost"`
	BalanceStart     float64  `json:"balance_start"`
	BalanceStartCost float64  `json:"balance_start_cost"`
	BalanceEnd       float64  `json:"balance_end"`
	BalanceEndCost   float64  `json:"balance_end_cost"`
	InternalPct      *float64 `json:"internal_pct"`
	OutPct           *float64 `json:"out_pct"`
	CheckStatus      string   `json:"check_status"`
	CheckBalance     float64  `json:"check_balance"`
	CheckMessage     string   `json:"check_message"`
}

// Stats is the grouped report: one row per day/week/month bucket plus a
// totals row of the same shape.
type Stats struct {
	GroupBy string `json:"group_by"`
	Rows    []Row  `json:"rows"`
	Totals  Row    `json:"totals"`
}

// bucket accumulates one report row before conversion.
type bucket struct {
	label string
	qty   map[model.FlowType]decimal.Decimal
	cost  map[model.FlowType]decimal.Decimal

	startQty  decimal.Decimal
	startCost decimal.Decimal
	endQty    decimal.Decimal
	endCost   decimal.Decimal
}

// BuildStats produces the grouped report. An empty ledger yields a
// well-formed result with an empty row list and zero totals.
func BuildStats(l *ledger.Ledger, cat *catalog.Catalog, group ledger.Grouping) Stats {
	stats := Stats{GroupBy: group.String(), Rows: []Row{}}

	var buckets []*bucket
	var current *bucket
	for _, day := range l.Days {
		label := group.Bucket(day.Date)
		if current == nil || current.label != label {
			current = &bucket{
				label:     label,
				qty:       make(map[model.FlowType]decimal.Decimal, 4),
				cost:      make(map[model.FlowType]decimal.Decimal, 4),
				startQty:  day.TotalStart(),
				startCost: costOf(day.BalanceStart, cat),
			}
			buckets = append(buckets, current)
		}
		for _, flow := range model.Flows() {
			current.qty[flow] = current.qty[flow].Add(day.FlowTotal(flow))
			current.cost[flow] = current.cost[flow].Add(costOf(day.Flows[flow], cat))
		}
		// First day's opening balance was captured at bucket creation;
		// the closing balance tracks the latest day seen.
		current.endQty = day.TotalEnd()
		current.endCost = costOf(day.BalanceEnd, cat)
	}

	totals := &bucket{
		qty:  make(map[model.FlowType]decimal.Decimal, 4),
		cost: make(map[model.FlowType]decimal.Decimal, 4),
	}
	for i, b := range buckets {
		stats.Rows = append(stats.Rows, b.row())
		for _, flow := range model.Flows() {
			totals.qty[flow] = totals.qty[flow].Add(b.qty[flow])
			totals.cost[flow] = totals.cost[flow].Add(b.cost[flow])
		}
		if i == 0 {
			totals.startQty = b.startQty
			totals.startCost = b.startCost
		}
		totals.endQty = b.endQty
		totals.endCost = b.endCost
	}
	stats.Totals = totals.row()
	return stats
}

// row converts an accumulated bucket into the wire shape.
func (b *bucket) row() Row {
	r := Row{
		Date:             b.label,
		InQty:            f(b.qty[model.FlowInbound]),
		InCost:           f(b.cost[model.FlowInbound]),
		IngredientsQty:   f(b.qty[model.FlowIngredients]),
		IngredientsCost:  f(b.cost[model.FlowIngredients]),
		OutQty:           f(b.qty[model.FlowOutbound]),
		OutCost:          f(b.cost[model.FlowOutbound]),
		InternalQty:      f(b.qty[model.FlowInternal]),
		InternalCost:     f(b.cost[model.FlowInternal]),
		BalanceStart:     f(b.startQty),
		BalanceStartCost: f(b.startCost),
		BalanceEnd:       f(b.endQty),
		BalanceEndCost:   f(b.endCost),
	}
	r.InternalPct = pct(b.qty[model.FlowInternal], b.qty[model.FlowIngredients])
	r.OutPct = pct(b.qty[model.FlowOutbound], b.qty[model.FlowIngredients])
	r.CheckStatus, r.CheckMessage = check(b.endQty)
	r.CheckBalance = f(b.endQty)
	return r
}

// check classifies a closing balance. Only meaningful at the aggregate
// level: a negative aggregate means more was shipped or written off than
// the recorded output covers.
func check(balance decimal.Decimal) (status, message string) {
	switch {
	case balance.IsNegative():
		return CheckShortage, "Не хватает " + balance.Abs().String()
	case balance.IsPositive():
		return CheckSurplus, "Остаток " + balance.String()
	default:
		return CheckOK, "Сходится"
	}
}

// pct computes part of base as a percentage with one decimal place.
// A zero base yields nil, never a division by zero.
func pct(part, base decimal.Decimal) *float64 {
	if !base.IsPositive() {
		return nil
	}
	v := part.Div(base).Mul(decimal.NewFromInt(100)).InexactFloat64()
	rounded := math.Round(v*10) / 10
	return &rounded
}

// costOf values a per-item quantity map against the price catalog.
// Unknown items contribute zero; they surface in the missing-price audit.
func costOf(items map[string]decimal.Decimal, cat *catalog.Catalog) decimal.Decimal {
	total := decimal.Zero
	if cat == nil {
		return total
	}
	for item, qty := range items {
		price, ok := cat.Price(item)
		if !ok {
			continue
		}
		total = total.Add(qty.Mul(price))
	}
	return total.Round(2)
}

func f(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
