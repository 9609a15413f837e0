package model

// FileDiagnostics records how the extraction of one source file went.
// Aggregated per refresh and surfaced through the sources view and the
// refresh journal instead of being discarded.
type FileDiagnostics struct {
	Path string   `json:"path"`
	Flow FlowType `json:"flow"`
	// RowsKept is the number of rows that produced a record.
	RowsKept int `json:"rows_kept"`
	// DroppedNoDate counts rows whose document string had no parseable date.
	DroppedNoDate int `json:"dropped_no_date"`
	// DroppedBadQty counts rows with a non-numeric or non-positive quantity.
	DroppedBadQty int `json:"dropped_bad_qty"`
	// PositionalColumns lists columns resolved by fixed position because no
	// header alias matched; a signal that the export format drifted.
	PositionalColumns []string `json:"positional_columns,omitempty"`
	// Err is set when the file could not be opened or parsed at all.
	Err string `json:"error,omitempty"`
}

// Dropped returns the total number of rows the file lost to validation.
func (d FileDiagnostics) Dropped() int {
	return d.DroppedNoDate + d.DroppedBadQty
}

// SourceInfo summarizes the merged state of one flow type for the
// operator-facing sources view.
type SourceInfo struct {
	Flow  FlowType `json:"flow"`
	Label string   `json:"label"`
	Files int      `json:"files"`
	Rows  int      `json:"rows"`
	Dates int      `json:"dates"`
}
