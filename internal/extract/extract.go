// Package extract turns one classified spreadsheet into normalized flow
// records.
//
// Column resolution is heuristic: each flow type carries its own ranked
// header-alias table with fixed column positions as a last resort, since
// the ERP occasionally reshuffles export layouts. Every positional
// fallback is reported in the file diagnostics so format drift is visible
// to operators rather than silent.
package extract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mkarpov/razborka/internal/model"
)

// Format describes how to read one flow type's export: which header
// aliases identify the document, item, quantity and article columns, and
// which fixed positions to fall back to.
type Format struct {
	Flow model.FlowType

	docAliases  []string
	itemAliases []string
	qtyAliases  []string
	// qtyExact, when set, is tried as an exact header match before the
	// alias list. The write-off export has both "Количество упаковок" and
	// "Количество"; substring matching alone would pick the wrong one.
	qtyExact       string
	articleAliases []string

	docPos     int
	itemPos    int
	qtyPos     int // falls back to the last column when out of range
	articlePos int // -1 when the flow has no article column
}

// FormatFor returns the source format of a flow type.
func FormatFor(flow model.FlowType) Format {
	switch flow {
	case model.FlowInbound:
		return Format{
			Flow:        flow,
			docAliases:  []string{"перемещение товаров"},
			itemAliases: []string{"номенклатура"},
			qtyAliases:  []string{"количество(в единицах хранения)", "количество"},
			docPos:      0, itemPos: 1, qtyPos: 11, articlePos: -1,
		}
	case model.FlowOutbound:
		return Format{
			Flow:        flow,
			docAliases:  []string{"перемещение", "перемещение товаров"},
			itemAliases: []string{"номенклатура"},
			qtyAliases:  []string{"количество(в единицах хранения)", "количество"},
			docPos:      0, itemPos: 1, qtyPos: 11, articlePos: -1,
		}
	case model.FlowInternal:
		return Format{
			Flow:           flow,
			docAliases:     []string{"внутреннее потребление"},
			itemAliases:    []string{"номенклатура"},
			qtyExact:       "количество",
			qtyAliases:     []string{"количество"},
			articleAliases: []string{"статья списания"},
			docPos:         0, itemPos: 1, qtyPos: 17, articlePos: 3,
		}
	case model.FlowIngredients:
		return Format{
			Flow:        flow,
			docAliases:  []string{"движение продукции и материалов", "движение продукции"},
			itemAliases: []string{"номенклатура"},
			qtyAliases:  []string{"количество (в единицах хранения)", "количество(в единицах хранения)", "количество"},
			docPos:      0, itemPos: 1, qtyPos: 2, articlePos: -1,
		}
	default:
		return Format{Flow: model.FlowUnclassified, articlePos: -1}
	}
}

// File extracts all valid records from path. Failures are reported through
// the diagnostics, never as a hard error: one bad export must not abort
// the refresh.
func (f Format) File(path string) ([]model.FlowRecord, model.FileDiagnostics) {
	diag := model.FileDiagnostics{Path: path, Flow: f.Flow}

	rows, err := readRows(path)
	if err != nil {
		diag.Err = err.Error()
		slog.Warn("failed to read source file, skipping",
			"file", path,
			"flow", f.Flow,
			"error", err)
		return nil, diag
	}
	if len(rows) < 2 {
		return nil, diag
	}

	cols := f.resolveColumns(rows[0], len(rows[0]), &diag)
	if cols.doc < 0 || cols.item < 0 || cols.qty < 0 {
		diag.Err = "required columns not found"
		slog.Warn("required columns not found, skipping file",
			"file", path,
			"flow", f.Flow)
		return nil, diag
	}

	var records []model.FlowRecord
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		doc := strings.TrimSpace(cellAt(row, cols.doc))
		date, ok := model.ParseDocumentDate(doc)
		if !ok {
			diag.DroppedNoDate++
			continue
		}
		qty, ok := model.ParseQuantity(cellAt(row, cols.qty))
		if !ok || !qty.IsPositive() {
			diag.DroppedBadQty++
			continue
		}
		rec := model.FlowRecord{
			Date:         date,
			Document:     doc,
			NormDocument: model.NormalizeDocument(doc),
			Item:         strings.TrimSpace(cellAt(row, cols.item)),
			Quantity:     qty,
		}
		if cols.article >= 0 {
			rec.Article = strings.TrimSpace(cellAt(row, cols.article))
		}
		records = append(records, rec)
		diag.RowsKept++
	}
	return records, diag
}

type columns struct {
	doc     int
	item    int
	qty     int
	article int
}

func (f Format) resolveColumns(header []string, width int, diag *model.FileDiagnostics) columns {
	cols := columns{article: -1}

	cols.doc = findColumn(header, f.docAliases)
	if cols.doc < 0 {
		cols.doc = positional(f.docPos, width)
		notePositional(diag, "document", cols.doc)
	}
	cols.item = findColumn(header, f.itemAliases)
	if cols.item < 0 {
		cols.item = positional(f.itemPos, width)
		notePositional(diag, "item", cols.item)
	}

	if f.qtyExact != "" {
		cols.qty = exactColumn(header, f.qtyExact)
	} else {
		cols.qty = findColumn(header, f.qtyAliases)
	}
	if cols.qty < 0 {
		cols.qty = positional(f.qtyPos, width)
		notePositional(diag, "quantity", cols.qty)
	}

	if f.articlePos >= 0 {
		cols.article = findColumn(header, f.articleAliases)
		if cols.article < 0 {
			cols.article = positional(f.articlePos, width)
			notePositional(diag, "article", cols.article)
		}
	}
	return cols
}

// findColumn matches aliases against the header: exact lower-cased match
// first, then containment, then a shared 4-rune prefix for longer aliases.
func findColumn(header []string, aliases []string) int {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, alias := range aliases {
		a := strings.ToLower(strings.TrimSpace(alias))
		for i, h := range lowered {
			if h == a {
				return i
			}
		}
		prefix := runePrefix(a, 4)
		for i, h := range lowered {
			if h == "" {
				continue
			}
			if strings.Contains(h, a) {
				return i
			}
			if len([]rune(a)) > 3 && strings.HasPrefix(h, prefix) {
				return i
			}
		}
	}
	return -1
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// exactColumn finds a header cell equal to want, case-insensitively.
func exactColumn(header []string, want string) int {
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

func positional(pos, width int) int {
	if pos >= 0 && pos < width {
		return pos
	}
	if width > 0 {
		return width - 1
	}
	return -1
}

func notePositional(diag *model.FileDiagnostics, name string, idx int) {
	if idx < 0 {
		return
	}
	diag.PositionalColumns = append(diag.PositionalColumns, name+"="+strconv.Itoa(idx))
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("failed to close workbook", "file", path, "error", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
