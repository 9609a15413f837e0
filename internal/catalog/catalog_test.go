package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpov/razborka/internal/testutil"
)

func TestLoad(t *testing.T) {
	path := testutil.TempXLSX(t, FileName,
		[]any{"Цена поступления номенклатуры"},
		[]any{"Номенклатура", "", "Цена"},
		[]any{"Коробка", "", "12,50"},
		[]any{"Стекло", "", "3"},
		[]any{"", "", "99"},          // no item name -> skipped
		[]any{"Брак", "", "-5"},      // negative price -> skipped
		[]any{"Пленка", "", "дорого"}, // unparseable -> skipped, rest kept
	)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	price, ok := c.Price("Коробка")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("12.5")))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/prices.xlsx")
	require.Error(t, err)
}

func TestMergeIsUpdateOnly(t *testing.T) {
	old := FromMap(map[string]decimal.Decimal{
		"Коробка": decimal.NewFromInt(10),
		"Стекло":  decimal.NewFromInt(3),
	})
	updates := FromMap(map[string]decimal.Decimal{
		"Коробка": decimal.NewFromInt(12), // updated
		"Тарелка": decimal.NewFromInt(7),  // new
	})

	merged := old.Merge(updates)

	price, _ := merged.Price("Коробка")
	assert.True(t, price.Equal(decimal.NewFromInt(12)))
	price, _ = merged.Price("Тарелка")
	assert.True(t, price.Equal(decimal.NewFromInt(7)))
	// Entries absent from the new file are never removed.
	price, ok := merged.Price("Стекло")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(3)))

	// The old catalog is untouched: published snapshots keep reading it.
	price, _ = old.Price("Коробка")
	assert.True(t, price.Equal(decimal.NewFromInt(10)))
}

func TestPriceCaseInsensitiveFallback(t *testing.T) {
	c := FromMap(map[string]decimal.Decimal{"Коробка": decimal.NewFromInt(10)})

	price, ok := c.Price("коробка")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(10)))

	_, ok = c.Price("Ваза")
	assert.False(t, ok)
}

func TestMissing(t *testing.T) {
	c := FromMap(map[string]decimal.Decimal{"Коробка": decimal.NewFromInt(10)})

	missing := c.Missing([]string{"Стекло", "коробка", "Ваза", "Стекло", ""})
	assert.Equal(t, []string{"Ваза", "Стекло"}, missing)
}
