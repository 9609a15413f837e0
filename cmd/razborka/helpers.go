package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mkarpov/razborka/internal/config"
	"github.com/mkarpov/razborka/internal/engine"
	"github.com/mkarpov/razborka/internal/storage"
	"github.com/mkarpov/razborka/internal/store"
)

// app bundles the wired runtime pieces behind every command.
type app struct {
	settings config.Settings
	engine   *engine.Engine
	journal  *storage.Journal
}

// initApp wires store, journal and engine from configuration. The
// journal is optional: a failure to open it degrades to a warning
// because reports must stay available even on a read-only filesystem.
func initApp() (*app, error) {
	settings, err := config.FromViper()
	if err != nil {
		return nil, err
	}

	journal, err := storage.NewJournal(settings.DatabasePath)
	if err != nil {
		slog.Warn("refresh journal unavailable, continuing without history",
			"path", settings.DatabasePath,
			"error", err)
		journal = nil
	}

	e := engine.New(engine.Config{
		DataDir:     settings.DataDir,
		Corrections: settings.Corrections,
		Precision:   settings.Precision,
	}, store.New(), journal)

	return &app{settings: settings, engine: e, journal: journal}, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			slog.Warn("failed to close journal", "error", err)
		}
	}
}

// loadSnapshot refreshes once and returns the published snapshot. Every
// read command rebuilds from the data directory; nothing is cached
// between invocations.
func (a *app) loadSnapshot(ctx context.Context, trigger string) (*store.Snapshot, error) {
	if _, err := a.engine.Refresh(ctx, trigger); err != nil {
		return nil, err
	}
	return a.engine.Store().Current(), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
