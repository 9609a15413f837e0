// Package ledger replays the canonical flow tables day by day into
// per-item running balances.
//
// The state machine walks the observed dates in ascending order: a day's
// closing balance is the next observed day's opening balance, and dates
// absent from every flow table are never materialized. Post-disassembly
// output adds to the balance, write-offs and shipments subtract, inbound
// receipts are informational only. Everything is rebuilt from scratch on
// every refresh; nothing here is persisted.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkarpov/razborka/internal/model"
)

// AdjustmentItem is the synthetic item a correction total is booked under
// when there are no carried-in balances to distribute it over.
const AdjustmentItem = "Корректировка остатка"

// DefaultPrecision is the rounding precision (decimal places) applied to
// balances after every transition.
const DefaultPrecision = 3

// Correction is an externally supplied calibration entry: on Date the
// computed opening balance is replaced by Total, typically after a
// physical stock count exposed accumulated drift.
type Correction struct {
	Date  time.Time
	Total decimal.Decimal
}

// Input is everything a ledger build consumes.
type Input struct {
	// Flows holds quantity per flow type, per day key, per item.
	Flows map[model.FlowType]map[string]map[string]decimal.Decimal
	// Corrections are consulted by date during the replay.
	Corrections []Correction
	// Precision in decimal places; DefaultPrecision when zero or negative.
	Precision int32
}

// Day is one per-date balance snapshot.
type Day struct {
	Day  string
	Date time.Time
	// BalanceStart and BalanceEnd are per-item balances. Items whose
	// balance rounds to exactly zero are absent; absent means zero.
	BalanceStart map[string]decimal.Decimal
	BalanceEnd   map[string]decimal.Decimal
	// Flows holds the day's per-item movement per flow type.
	Flows map[model.FlowType]map[string]decimal.Decimal
	// Corrected marks that a calibration override replaced BalanceStart.
	Corrected bool
}

// Ledger is the full replayed history.
type Ledger struct {
	Days      []*Day
	byDay     map[string]*Day
	precision int32
}

// Build replays the flow tables chronologically. An empty input yields an
// empty but well-formed ledger, never an error.
func Build(in Input) *Ledger {
	precision := in.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	corrections := make(map[string]Correction, len(in.Corrections))
	for _, c := range in.Corrections {
		corrections[model.DayKey(c.Date)] = c
	}

	l := &Ledger{byDay: make(map[string]*Day), precision: precision}
	running := make(map[string]decimal.Decimal)

	for _, dayKey := range observedDays(in.Flows) {
		date, err := time.Parse("2006-01-02", dayKey)
		if err != nil {
			continue
		}
		day := &Day{
			Day:   dayKey,
			Date:  date,
			Flows: make(map[model.FlowType]map[string]decimal.Decimal, 4),
		}
		for _, flow := range model.Flows() {
			day.Flows[flow] = cloneBalances(in.Flows[flow][dayKey])
		}

		if corr, ok := corrections[dayKey]; ok {
			running = distribute(running, corr.Total, precision)
			day.Corrected = true
		}
		day.BalanceStart = cloneBalances(running)

		for item, qty := range day.Flows[model.FlowIngredients] {
			running[item] = running[item].Add(qty).Round(precision)
		}
		for item, qty := range day.Flows[model.FlowInternal] {
			running[item] = running[item].Sub(qty).Round(precision)
		}
		for item, qty := range day.Flows[model.FlowOutbound] {
			running[item] = running[item].Sub(qty).Round(precision)
		}
		// Bound the running map: a zero balance and an absent item are
		// indistinguishable to every consumer.
		for item, bal := range running {
			if bal.IsZero() {
				delete(running, item)
			}
		}

		day.BalanceEnd = cloneBalances(running)
		l.Days = append(l.Days, day)
		l.byDay[dayKey] = day
	}
	return l
}

// Day returns the snapshot for a day key, if the date was observed.
func (l *Ledger) Day(day string) (*Day, bool) {
	d, ok := l.byDay[day]
	return d, ok
}

// Empty reports whether the ledger materialized no dates at all.
func (l *Ledger) Empty() bool { return len(l.Days) == 0 }

// Precision returns the rounding precision the ledger was built with.
func (l *Ledger) Precision() int32 {
	if l.precision <= 0 {
		return DefaultPrecision
	}
	return l.precision
}

// TotalStart is the aggregate opening balance of the day.
func (d *Day) TotalStart() decimal.Decimal { return Sum(d.BalanceStart) }

// TotalEnd is the aggregate closing balance of the day.
func (d *Day) TotalEnd() decimal.Decimal { return Sum(d.BalanceEnd) }

// FlowTotal is the day's aggregate quantity for one flow type.
func (d *Day) FlowTotal(flow model.FlowType) decimal.Decimal {
	return Sum(d.Flows[flow])
}

// Sum adds up a per-item quantity map.
func Sum(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// distribute replaces the running balances with an aggregate override
// total. The override is a single scalar layered onto a per-item ledger,
// so it is spread proportionally over the carried-in per-item balances.
// When nothing positive is carried in, the whole total is booked under
// the synthetic adjustment item so the aggregate still matches.
func distribute(running map[string]decimal.Decimal, total decimal.Decimal, precision int32) map[string]decimal.Decimal {
	carried := Sum(running)
	if !carried.IsPositive() || len(running) == 0 {
		out := make(map[string]decimal.Decimal, 1)
		if t := total.Round(precision); !t.IsZero() {
			out[AdjustmentItem] = t
		}
		return out
	}

	factor := total.Div(carried)
	out := make(map[string]decimal.Decimal, len(running))
	scaledSum := decimal.Zero
	largest := ""
	for _, item := range sortedItems(running) {
		scaled := running[item].Mul(factor).Round(precision)
		if !scaled.IsZero() {
			out[item] = scaled
		}
		scaledSum = scaledSum.Add(scaled)
		if largest == "" || running[item].GreaterThan(running[largest]) {
			largest = item
		}
	}
	// Rounding residue lands on the largest position so the aggregate
	// equals the override exactly.
	if residue := total.Sub(scaledSum); !residue.IsZero() && largest != "" {
		adjusted := out[largest].Add(residue)
		if adjusted.IsZero() {
			delete(out, largest)
		} else {
			out[largest] = adjusted
		}
	}
	return out
}

func observedDays(flows map[model.FlowType]map[string]map[string]decimal.Decimal) []string {
	seen := make(map[string]struct{})
	for _, byDay := range flows {
		for day := range byDay {
			seen[day] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for day := range seen {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

func cloneBalances(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedItems(m map[string]decimal.Decimal) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
