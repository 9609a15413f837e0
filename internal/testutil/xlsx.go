// Package testutil provides shared helpers for building spreadsheet
// fixtures in tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes rows into a single-sheet workbook at path. Each row is
// written starting at column A; nil cells are left empty.
func WriteXLSX(t *testing.T, path string, rows ...[]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			t.Errorf("failed to close workbook: %v", err)
		}
	}()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to compute cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &rows[i]); err != nil {
			t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook %s: %v", path, err)
	}
}

// TempXLSX writes rows into a workbook with the given name inside a
// temporary directory and returns its full path.
func TempXLSX(t *testing.T, name string, rows ...[]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	WriteXLSX(t, path, rows...)
	return path
}
