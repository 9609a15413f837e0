package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpov/razborka/internal/catalog"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/report"
	"github.com/mkarpov/razborka/internal/store"
	"github.com/mkarpov/razborka/internal/testutil"
)

func writeIngredients(t *testing.T, dir, name string) {
	t.Helper()
	testutil.WriteXLSX(t, filepath.Join(dir, name),
		[]any{"Движение продукции и материалов", "Номенклатура", "Количество"},
		[]any{"ДВ-1 от 10.02.2026", "X", "100"},
	)
}

func writeOutbound(t *testing.T, dir, name string) {
	t.Helper()
	testutil.WriteXLSX(t, filepath.Join(dir, name),
		[]any{"Перемещение", "Номенклатура", "Количество"},
		[]any{"ЛМ-1 от 10.02.2026", "X", "30"},
	)
}

func writePrices(t *testing.T, dir string, price string) {
	t.Helper()
	testutil.WriteXLSX(t, filepath.Join(dir, catalog.FileName),
		[]any{"Прайс"},
		[]any{"Номенклатура", "Цена"},
		[]any{"X", price},
	)
}

func TestRefreshBuildsAndPublishes(t *testing.T) {
	dir := t.TempDir()
	writeIngredients(t, dir, "004 Поступление ингредиентов.xlsx")
	writeOutbound(t, dir, "002 Перемещение готовой продукции.xlsx")
	writePrices(t, dir, "2")

	st := store.New()
	e := New(Config{DataDir: dir}, st, nil)

	run, err := e.Refresh(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, run.FilesFound)
	assert.Equal(t, 2, run.FilesLoaded)
	assert.Equal(t, 1, run.Dates)

	snap := st.Current()
	stats := report.BuildStats(snap.Ledger, snap.Catalog, ledger.GroupDay)
	require.Len(t, stats.Rows, 1)
	row := stats.Rows[0]
	assert.Equal(t, 100.0, row.IngredientsQty)
	assert.Equal(t, 30.0, row.OutQty)
	assert.Equal(t, 70.0, row.BalanceEnd)
	assert.Equal(t, 140.0, row.BalanceEndCost)
	assert.Equal(t, report.CheckSurplus, row.CheckStatus)
}

func TestRefreshReuploadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeIngredients(t, dir, "004 Поступление ингредиентов.xlsx")

	st := store.New()
	e := New(Config{DataDir: dir}, st, nil)
	_, err := e.Refresh(context.Background(), "test")
	require.NoError(t, err)
	first := report.BuildStats(st.Current().Ledger, st.Current().Catalog, ledger.GroupDay)

	// A byte-identical re-upload must not change any total.
	writeIngredients(t, dir, "004_gdrive_copy.xlsx")
	_, err = e.Refresh(context.Background(), "test")
	require.NoError(t, err)
	second := report.BuildStats(st.Current().Ledger, st.Current().Catalog, ledger.GroupDay)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Totals, second.Totals)
}

func TestRefreshSkipsUnclassifiedAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeIngredients(t, dir, "004 Поступление ингредиентов.xlsx")
	testutil.WriteXLSX(t, filepath.Join(dir, "случайный отчет.xlsx"),
		[]any{"Сотрудник", "Выработка"},
		[]any{"Иванов", "5"},
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "битый.xlsx"), []byte("not a workbook"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$лок.xlsx"), []byte("lock"), 0o600))

	st := store.New()
	e := New(Config{DataDir: dir}, st, nil)
	run, err := e.Refresh(context.Background(), "test")
	require.NoError(t, err, "bad files must not abort the refresh")
	assert.Equal(t, 3, run.FilesFound, "lock files are not even counted")
	assert.Equal(t, 1, run.FilesLoaded)
	assert.Equal(t, 2, run.FilesSkipped)
	assert.Len(t, st.Current().Ledger.Days, 1)
}

func TestRefreshCatalogIsUpdateOnly(t *testing.T) {
	dir := t.TempDir()
	writeIngredients(t, dir, "004 Поступление ингредиентов.xlsx")
	writePrices(t, dir, "2")

	st := store.New()
	e := New(Config{DataDir: dir}, st, nil)
	_, err := e.Refresh(context.Background(), "test")
	require.NoError(t, err)

	// The next price file drops X and adds Y; X must survive.
	testutil.WriteXLSX(t, filepath.Join(dir, catalog.FileName),
		[]any{"Прайс"},
		[]any{"Номенклатура", "Цена"},
		[]any{"Y", "7"},
	)
	_, err = e.Refresh(context.Background(), "test")
	require.NoError(t, err)

	cat := st.Current().Catalog
	_, ok := cat.Price("X")
	assert.True(t, ok)
	_, ok = cat.Price("Y")
	assert.True(t, ok)
}

func TestRefreshEmptyDirectory(t *testing.T) {
	st := store.New()
	e := New(Config{DataDir: filepath.Join(t.TempDir(), "fresh")}, st, nil)

	run, err := e.Refresh(context.Background(), "startup")
	require.NoError(t, err)
	assert.Zero(t, run.FilesFound)

	stats := report.BuildStats(st.Current().Ledger, st.Current().Catalog, ledger.GroupDay)
	assert.Empty(t, stats.Rows)
	assert.Equal(t, report.CheckOK, stats.Totals.CheckStatus)
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeIngredients(t, dir, "004 Поступление ингредиентов.xlsx")

	st := store.New()
	e := New(Config{DataDir: dir}, st, nil)
	_, err := e.Refresh(context.Background(), "test")
	require.NoError(t, err)
	good := st.Current()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Refresh(ctx, "test")
	require.Error(t, err)

	assert.Same(t, good, st.Current(), "a failing refresh must not replace the published snapshot")
}

func TestRefreshAppliesCorrections(t *testing.T) {
	dir := t.TempDir()
	writeIngredients(t, dir, "004 Поступление ингредиентов.xlsx")

	st := store.New()
	day, _ := time.Parse("2006-01-02", "2026-02-10")
	e := New(Config{
		DataDir: dir,
		Corrections: []ledger.Correction{
			{Date: day, Total: decimal.NewFromInt(500)},
		},
	}, st, nil)

	_, err := e.Refresh(context.Background(), "test")
	require.NoError(t, err)

	d, ok := st.Current().Ledger.Day("2026-02-10")
	require.True(t, ok)
	assert.True(t, d.Corrected)
	assert.True(t, d.TotalEnd().Equal(decimal.NewFromInt(600)))
}
