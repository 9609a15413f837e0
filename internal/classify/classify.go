// Package classify decides which flow type a source spreadsheet belongs to.
//
// Classification is two-step: the reserved filename prefix (001-004) is
// authoritative when present, because the ERP exports receipts and
// shipments with identical column layouts and only the name tells them
// apart. Files without a recognized prefix fall back to a header sniff.
package classify

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mkarpov/razborka/internal/model"
)

// sniffRule matches a lower-cased, space-joined header row. All substrings
// in required must be present, plus at least one of anyOf when non-empty.
type sniffRule struct {
	flow     model.FlowType
	required []string
	anyOf    []string
}

// Rules are checked in order; the first match wins. The receipt rule runs
// before the shipment rule because the shipment header set is a subset of
// the receipt one.
var sniffRules = []sniffRule{
	{
		flow:     model.FlowInbound,
		required: []string{"перемещение товаров", "номенклатура", "количество", "единицах хранения"},
	},
	{
		flow:     model.FlowIngredients,
		required: []string{"движение продукции", "номенклатура", "количество"},
	},
	{
		flow:     model.FlowInternal,
		required: []string{"внутреннее потребление", "статья списания", "номенклатура"},
	},
	{
		flow:     model.FlowOutbound,
		required: []string{"перемещение", "номенклатура"},
		anyOf:    []string{"количество", "единицах хранения"},
	},
}

// ByName classifies a file by its reserved filename prefix. Returns
// FlowUnclassified when the name carries no known prefix.
func ByName(path string) model.FlowType {
	name := strings.ToLower(strings.TrimSpace(filepath.Base(path)))
	for _, flow := range model.Flows() {
		if strings.HasPrefix(name, flow.Prefix()) {
			return flow
		}
	}
	return model.FlowUnclassified
}

// BySniff classifies a file by its header row alone.
func BySniff(path string) (model.FlowType, error) {
	header, err := headerRow(path)
	if err != nil {
		return model.FlowUnclassified, err
	}
	joined := strings.ToLower(strings.Join(header, " "))
	for _, rule := range sniffRules {
		if rule.matches(joined) {
			return rule.flow, nil
		}
	}
	return model.FlowUnclassified, nil
}

// File classifies a file by name prefix, then by header sniff. Failures
// are logged and yield FlowUnclassified; they must never abort the
// classification of sibling files.
func File(path string) model.FlowType {
	if flow := ByName(path); flow != model.FlowUnclassified {
		return flow
	}
	flow, err := BySniff(path)
	if err != nil {
		slog.Warn("failed to sniff file headers, skipping",
			"file", path,
			"error", err)
		return model.FlowUnclassified
	}
	if flow == model.FlowUnclassified {
		slog.Warn("file matched no classification rule, skipping", "file", path)
	}
	return flow
}

func (r sniffRule) matches(header string) bool {
	for _, s := range r.required {
		if !strings.Contains(header, s) {
			return false
		}
	}
	if len(r.anyOf) == 0 {
		return true
	}
	for _, s := range r.anyOf {
		if strings.Contains(header, s) {
			return true
		}
	}
	return false
}

// headerRow reads only the first row of the first sheet.
func headerRow(path string) ([]string, error) {
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
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close row iterator", "file", path, "error", closeErr)
		}
	}()

	if !rows.Next() {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	return header, nil
}
