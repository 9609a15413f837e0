// Package engine orchestrates a full refresh: scan the data directory,
// classify and extract every export, merge the canonical tables, reload
// prices, replay the ledger and publish the result as one snapshot.
//
// There is no incremental path. The unit of work is one full rebuild from
// date zero; if anything goes wrong before publication the previously
// published snapshot stays untouched.
package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkarpov/razborka/internal/catalog"
	"github.com/mkarpov/razborka/internal/classify"
	"github.com/mkarpov/razborka/internal/extract"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/merge"
	"github.com/mkarpov/razborka/internal/model"
	"github.com/mkarpov/razborka/internal/storage"
	"github.com/mkarpov/razborka/internal/store"
)

// Config carries the engine's refresh parameters.
type Config struct {
	// DataDir is scanned recursively for .xlsx exports.
	DataDir string
	// Corrections are the ledger calibration entries from configuration.
	Corrections []ledger.Correction
	// Precision is the balance rounding precision in decimal places.
	Precision int32
}

// Engine rebuilds and publishes snapshots.
type Engine struct {
	cfg     Config
	store   *store.Store
	journal *storage.Journal // optional; nil disables journaling

	// Progress, when set, is invoked after each processed file.
	Progress func(done, total int)

	mu sync.Mutex
}

// New creates an engine publishing into st. journal may be nil.
func New(cfg Config, st *store.Store, journal *storage.Journal) *Engine {
	return &Engine{cfg: cfg, store: st, journal: journal}
}

// Store returns the snapshot store the engine publishes into.
func (e *Engine) Store() *store.Store { return e.store }

// Refresh performs one full rebuild and publishes it. Concurrent calls
// are serialized; readers of the store are never blocked.
func (e *Engine) Refresh(ctx context.Context, trigger string) (*storage.RefreshRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := &storage.RefreshRun{StartedAt: time.Now().UTC(), Trigger: trigger}

	snap, diags, err := e.build(ctx)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = storage.StatusError
		run.Error = err.Error()
		e.journalRun(run, diags)
		return run, err
	}

	run.Status = storage.StatusOK
	run.FilesFound = len(diags)
	for _, d := range diags {
		if d.Err == "" && d.Flow != model.FlowUnclassified {
			run.FilesLoaded++
		} else {
			run.FilesSkipped++
		}
	}
	for _, t := range snap.Tables {
		run.Records += t.Len()
	}
	run.Dates = len(snap.Ledger.Days)

	e.store.Publish(snap)
	e.journalRun(run, diags)

	slog.Info("refresh complete",
		"trigger", trigger,
		"files", run.FilesFound,
		"loaded", run.FilesLoaded,
		"skipped", run.FilesSkipped,
		"records", run.Records,
		"dates", run.Dates,
		"elapsed", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

// build assembles a complete snapshot without publishing it.
func (e *Engine) build(ctx context.Context) (*store.Snapshot, []model.FileDiagnostics, error) {
	files, err := e.scan()
	if err != nil {
		return nil, nil, err
	}

	tables := make(map[model.FlowType]*merge.Table, 4)
	for _, flow := range model.Flows() {
		tables[flow] = merge.NewTable(flow)
	}

	var diags []model.FileDiagnostics
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, diags, fmt.Errorf("refresh canceled: %w", err)
		}
		flow := classify.File(path)
		if flow == model.FlowUnclassified {
			diags = append(diags, model.FileDiagnostics{Path: path, Err: "no classification rule matched"})
		} else {
			records, diag := extract.FormatFor(flow).File(path)
			tables[flow].AddFile(records)
			diags = append(diags, diag)
		}
		if e.Progress != nil {
			e.Progress(i+1, len(files))
		}
	}

	prev := e.store.Current()
	cat := prev.Catalog
	pricePath := filepath.Join(e.cfg.DataDir, catalog.FileName)
	if _, statErr := os.Stat(pricePath); statErr == nil {
		loaded, loadErr := catalog.Load(pricePath)
		if loadErr != nil {
			// Keep the prior catalog intact; prices are update-only.
			slog.Warn("failed to load price catalog, keeping previous prices",
				"file", pricePath,
				"error", loadErr)
			diags = append(diags, model.FileDiagnostics{Path: pricePath, Err: loadErr.Error()})
		} else {
			cat = cat.Merge(loaded)
		}
	}

	led := ledger.Build(ledger.Input{
		Flows:       buildFlows(tables),
		Corrections: e.cfg.Corrections,
		Precision:   e.cfg.Precision,
	})

	return &store.Snapshot{
		Tables:      tables,
		Catalog:     cat,
		Ledger:      led,
		Diagnostics: diags,
		BuiltAt:     time.Now().UTC(),
	}, diags, nil
}

func buildFlows(tables map[model.FlowType]*merge.Table) map[model.FlowType]map[string]map[string]decimal.Decimal {
	flows := make(map[model.FlowType]map[string]map[string]decimal.Decimal, len(tables))
	for flow, table := range tables {
		flows[flow] = table.QtyByDayItem()
	}
	return flows
}

// scan lists every movement .xlsx under the data directory, creating the
// directory when it does not exist yet so a cold start refreshes to an
// empty snapshot instead of failing.
func (e *Engine) scan() ([]string, error) {
	if err := os.MkdirAll(e.cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to ensure data directory: %w", err)
	}
	var files []string
	err := filepath.WalkDir(e.cfg.DataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("failed to walk data directory entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		// ~$ files are Excel lock files left by open workbooks.
		if strings.HasPrefix(name, "~$") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") && name != catalog.FileName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}
	return files, nil
}

func (e *Engine) journalRun(run *storage.RefreshRun, diags []model.FileDiagnostics) {
	if e.journal == nil {
		return
	}
	// Journaling is best-effort; it must never fail a refresh.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.journal.Record(ctx, run, diags); err != nil {
		slog.Error("failed to journal refresh run", "error", err)
	}
}
