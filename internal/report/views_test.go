package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpov/razborka/internal/catalog"
	"github.com/mkarpov/razborka/internal/merge"
	"github.com/mkarpov/razborka/internal/model"
)

func TestFlowDetail(t *testing.T) {
	l := buildLedger(
		entry{model.FlowInternal, "2026-02-10", "Коробка", 5},
		entry{model.FlowInternal, "2026-02-10", "Стекло", 9},
	)

	detail, err := FlowDetail(l, catalog.New(), "2026-02-10", model.FlowInternal, "")
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "Стекло", detail.Items[0].Name)
	assert.Equal(t, 9.0, detail.Items[0].Quantity)
}

func TestFlowDetailUnknownFlow(t *testing.T) {
	l := buildLedger(entry{model.FlowInternal, "2026-02-10", "Коробка", 5})
	_, err := FlowDetail(l, catalog.New(), "2026-02-10", model.FlowType("bogus"), "")
	assert.Error(t, err)
}

func TestFlowDetailUnobservedDate(t *testing.T) {
	l := buildLedger(entry{model.FlowInternal, "2026-02-10", "Коробка", 5})
	detail, err := FlowDetail(l, catalog.New(), "2026-03-01", model.FlowInternal, "")
	require.NoError(t, err)
	assert.Empty(t, detail.Items)
}

func TestBuildFullDetail(t *testing.T) {
	cat := catalog.FromMap(map[string]decimal.Decimal{"X": decimal.NewFromInt(2)})
	l := buildLedger(
		entry{model.FlowIngredients, "2026-02-09", "X", 10},
		entry{model.FlowOutbound, "2026-02-10", "X", 4},
		entry{model.FlowInbound, "2026-02-10", "Y", 3},
	)

	full := BuildFullDetail(l, cat, "2026-02-10")
	require.Len(t, full.Items, 2)

	x := full.Items[0]
	assert.Equal(t, "X", x.Name)
	assert.Equal(t, 10.0, x.BalanceStart)
	assert.Equal(t, 20.0, x.BalanceStartCost)
	assert.Equal(t, 4.0, x.OutQty)
	assert.Equal(t, 6.0, x.BalanceEnd)

	y := full.Items[1]
	assert.Equal(t, "Y", y.Name)
	assert.Equal(t, 3.0, y.InQty)
	assert.Equal(t, 0.0, y.BalanceEnd, "inbound receipts never enter the balance")
}

func TestBuildSummaryPeriods(t *testing.T) {
	l := buildLedger(
		entry{model.FlowInternal, "2026-01-05", "Старое", 50},
		entry{model.FlowInternal, "2026-02-08", "Коробка", 5},
		entry{model.FlowInternal, "2026-02-10", "Стекло", 9},
	)

	all, err := BuildSummary(l, catalog.New(), "all", 5, 15, 15)
	require.NoError(t, err)
	require.Len(t, all.Internal, 3)
	assert.Equal(t, "Старое", all.Internal[0].Name)

	week, err := BuildSummary(l, catalog.New(), "week", 5, 15, 15)
	require.NoError(t, err)
	require.Len(t, week.Internal, 2, "week covers the 7 days ending at the latest date")

	month, err := BuildSummary(l, catalog.New(), "month", 5, 15, 15)
	require.NoError(t, err)
	require.Len(t, month.Internal, 2, "month covers the calendar month of the latest date")

	_, err = BuildSummary(l, catalog.New(), "year", 5, 15, 15)
	assert.Error(t, err)
}

func TestBuildSummaryTopN(t *testing.T) {
	l := buildLedger(
		entry{model.FlowOutbound, "2026-02-10", "А", 1},
		entry{model.FlowOutbound, "2026-02-10", "Б", 3},
		entry{model.FlowOutbound, "2026-02-10", "В", 2},
	)

	s, err := BuildSummary(l, catalog.New(), "all", 5, 15, 2)
	require.NoError(t, err)
	require.Len(t, s.Out, 2)
	assert.Equal(t, "Б", s.Out[0].Name)
	assert.Equal(t, "В", s.Out[1].Name)
}

func tableOf(flow model.FlowType, items ...string) *merge.Table {
	t := merge.NewTable(flow)
	d := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	var records []model.FlowRecord
	for _, item := range items {
		records = append(records, model.FlowRecord{
			Date:         d,
			Document:     "Д-1 от 10.02.2026",
			NormDocument: "Д-1 от 10.02.2026",
			Item:         item,
			Quantity:     decimal.NewFromInt(1),
		})
	}
	t.AddFile(records)
	return t
}

func TestMissingPricesAndNomenclature(t *testing.T) {
	tables := map[model.FlowType]*merge.Table{
		model.FlowInbound:  tableOf(model.FlowInbound, "Коробка", "Ваза"),
		model.FlowOutbound: tableOf(model.FlowOutbound, "коробка"),
	}
	cat := catalog.FromMap(map[string]decimal.Decimal{"Коробка": decimal.NewFromInt(10)})

	// The differently-cased item still resolves a price and is not missing.
	assert.Equal(t, []string{"Ваза"}, MissingPrices(tables, cat))
	assert.Equal(t, []string{"Ваза", "Коробка", "коробка"}, Nomenclature(tables))
}

func TestSources(t *testing.T) {
	tables := map[model.FlowType]*merge.Table{
		model.FlowInbound: tableOf(model.FlowInbound, "Коробка", "Ваза"),
	}
	infos := Sources(tables)
	require.Len(t, infos, 4)
	assert.Equal(t, model.FlowInternal, infos[0].Flow)
	assert.Equal(t, model.FlowInbound, infos[2].Flow)
	assert.Equal(t, 1, infos[2].Files)
	assert.Equal(t, 2, infos[2].Rows)
	assert.Equal(t, 1, infos[2].Dates)
	assert.Zero(t, infos[0].Files)
}
