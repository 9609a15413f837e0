package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpov/razborka/internal/model"
	"github.com/mkarpov/razborka/internal/testutil"
)

func TestFileInboundByHeaderAlias(t *testing.T) {
	path := testutil.TempXLSX(t, "003.xlsx",
		[]any{"Перемещение товаров", "Номенклатура", "Количество(в единицах хранения)"},
		[]any{"ПОПО-01 от 03.01.2026 19:00:00", "Коробка", "12"},
		[]any{"ПОПО-01 от 03.01.2026 19:00:00", "Стекло", "3,5"},
		[]any{"итого", "", "15.5"}, // no date in document -> dropped
	)

	records, diag := FormatFor(model.FlowInbound).File(path)
	require.Len(t, records, 2)
	assert.Equal(t, 2, diag.RowsKept)
	assert.Equal(t, 1, diag.DroppedNoDate)
	assert.Empty(t, diag.PositionalColumns)

	assert.Equal(t, "2026-01-03", model.DayKey(records[0].Date))
	assert.Equal(t, "ПОПО-01 от 03.01.2026", records[0].NormDocument)
	assert.Equal(t, "Коробка", records[0].Item)
	assert.True(t, records[0].Quantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, records[1].Quantity.Equal(decimal.RequireFromString("3.5")))
}

func TestFileDropsBadQuantities(t *testing.T) {
	path := testutil.TempXLSX(t, "002.xlsx",
		[]any{"Перемещение", "Номенклатура", "Количество"},
		[]any{"ЛМ-1 от 05.01.2026", "Коробка", "0"},
		[]any{"ЛМ-1 от 05.01.2026", "Коробка", "-4"},
		[]any{"ЛМ-1 от 05.01.2026", "Коробка", "мн."},
		[]any{"ЛМ-1 от 05.01.2026", "Коробка", "7"},
	)

	records, diag := FormatFor(model.FlowOutbound).File(path)
	require.Len(t, records, 1)
	assert.Equal(t, 3, diag.DroppedBadQty)
	assert.True(t, records[0].Quantity.Equal(decimal.NewFromInt(7)))
}

func TestFileInternalPicksExactQuantityColumn(t *testing.T) {
	// The write-off export carries both "Количество упаковок" and
	// "Количество"; only the latter is in storage units.
	path := testutil.TempXLSX(t, "001.xlsx",
		[]any{"Внутреннее потребление", "Номенклатура", "Количество упаковок", "Статья списания", "Количество"},
		[]any{"ВП-9 от 10.01.2026", "Коробка", "1", "Бой", "24"},
	)

	records, diag := FormatFor(model.FlowInternal).File(path)
	require.Len(t, records, 1)
	assert.Equal(t, "Бой", records[0].Article)
	assert.True(t, records[0].Quantity.Equal(decimal.NewFromInt(24)), "got %s", records[0].Quantity)
	assert.Empty(t, diag.Err)
}

func TestFilePositionalFallbackIsDiagnosed(t *testing.T) {
	// Headers that match nothing: columns come from fixed positions and
	// the fallback is recorded for the sources view.
	path := testutil.TempXLSX(t, "004.xlsx",
		[]any{"c0", "c1", "c2"},
		[]any{"ДВ-2 от 06.01.2026", "Тарелка", "5"},
	)

	records, diag := FormatFor(model.FlowIngredients).File(path)
	require.Len(t, records, 1)
	assert.Equal(t, "Тарелка", records[0].Item)
	assert.True(t, records[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Contains(t, diag.PositionalColumns, "document=0")
	assert.Contains(t, diag.PositionalColumns, "item=1")
	assert.Contains(t, diag.PositionalColumns, "quantity=2")
}

func TestFileUnreadable(t *testing.T) {
	records, diag := FormatFor(model.FlowInbound).File("/nonexistent/missing.xlsx")
	assert.Nil(t, records)
	assert.NotEmpty(t, diag.Err)
}

func TestFileBlankRowsIgnoredSilently(t *testing.T) {
	path := testutil.TempXLSX(t, "003.xlsx",
		[]any{"Перемещение товаров", "Номенклатура", "Количество"},
		[]any{"", "", ""},
		[]any{"ПОПО-2 от 04.01.2026", "Коробка", "1"},
	)

	records, diag := FormatFor(model.FlowInbound).File(path)
	require.Len(t, records, 1)
	assert.Zero(t, diag.Dropped())
}
