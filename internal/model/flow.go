// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FlowType identifies one of the four semantic categories of warehouse
// movement. The string value doubles as the JSON key prefix used by the
// report surfaces (in_qty, ingredients_cost, ...).
type FlowType string

const (
	// FlowInbound is a receipt of returned goods onto the disassembly
	// warehouse. Informational only: it never contributes to the balance.
	FlowInbound FlowType = "in"
	// FlowIngredients is post-disassembly output received back into stock.
	FlowIngredients FlowType = "ingredients"
	// FlowInternal is an internal consumption write-off.
	FlowInternal FlowType = "internal"
	// FlowOutbound is a shipment of finished goods off the warehouse.
	FlowOutbound FlowType = "out"
	// FlowUnclassified marks a file that matched no classification rule.
	// Records of this type are never produced; the file is skipped.
	FlowUnclassified FlowType = ""
)

// Flows lists the four real flow types in report-column order.
func Flows() []FlowType {
	return []FlowType{FlowInbound, FlowIngredients, FlowOutbound, FlowInternal}
}

// Prefix returns the reserved filename prefix for the flow's source files.
func (f FlowType) Prefix() string {
	switch f {
	case FlowInternal:
		return "001"
	case FlowOutbound:
		return "002"
	case FlowInbound:
		return "003"
	case FlowIngredients:
		return "004"
	default:
		return ""
	}
}

// Label returns the operator-facing description of the flow, matching the
// wording of the source ERP reports.
func (f FlowType) Label() string {
	switch f {
	case FlowInternal:
		return "Внутреннее потребление (списание)"
	case FlowOutbound:
		return "Отгрузка готовой продукции"
	case FlowInbound:
		return "Поступление на склад"
	case FlowIngredients:
		return "Поступление ингредиентов после разборки"
	default:
		return "Не определено"
	}
}

// FlowRecord is one normalized movement extracted from a source file.
// Immutable once created; owned by the canonical table of its flow type.
type FlowRecord struct {
	// Date is the movement date at day precision, parsed out of the
	// document reference string.
	Date time.Time
	// Document is the raw source reference, e.g.
	// "ПОПО-000527 от 03.01.2026 19:00:00".
	Document string
	// NormDocument is Document with any trailing time-of-day stripped.
	// It is the merge key: the same physical document exported with and
	// without a timestamp must collapse into one.
	NormDocument string
	// Item is the trimmed nomenclature name, the de-facto primary key
	// for valuation.
	Item string
	// Article is the write-off cost-center tag; set for internal
	// consumption only.
	Article string
	// Quantity is a positive amount in storage units.
	Quantity decimal.Decimal
}

// GroupKey identifies the merge group a record belongs to.
type GroupKey struct {
	Day      string // Date formatted as 2006-01-02
	Document string // normalized document
	Item     string
	Article  string
}

// Key returns the record's merge group key.
func (r FlowRecord) Key() GroupKey {
	return GroupKey{
		Day:      DayKey(r.Date),
		Document: r.NormDocument,
		Item:     r.Item,
		Article:  r.Article,
	}
}

// DayKey formats a date as the canonical day string used for grouping.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
