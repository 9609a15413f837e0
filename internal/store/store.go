// Package store holds the single published refresh snapshot.
//
// Refreshes may be triggered by concurrent requests while report queries
// are iterating the current tables, so the snapshot is never mutated in
// place: a refresh assembles a complete replacement and publishes it with
// one atomic pointer swap. A failing refresh publishes nothing and leaves
// the previous snapshot intact.
package store

import (
	"sync/atomic"
	"time"

	"github.com/mkarpov/razborka/internal/catalog"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/merge"
	"github.com/mkarpov/razborka/internal/model"
)

// Snapshot is one immutable, fully-built view of the data directory.
// Readers must treat every field as read-only.
type Snapshot struct {
	Tables      map[model.FlowType]*merge.Table
	Catalog     *catalog.Catalog
	Ledger      *ledger.Ledger
	Diagnostics []model.FileDiagnostics
	BuiltAt     time.Time
}

// Empty returns a well-formed snapshot with no data, used before the
// first refresh completes so report queries degrade to empty results
// instead of crashing on a cold start.
func Empty() *Snapshot {
	tables := make(map[model.FlowType]*merge.Table, 4)
	for _, flow := range model.Flows() {
		tables[flow] = merge.NewTable(flow)
	}
	return &Snapshot{
		Tables:  tables,
		Catalog: catalog.New(),
		Ledger:  ledger.Build(ledger.Input{}),
	}
}

// Store publishes snapshots by atomic replacement.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// New creates a store holding an empty snapshot.
func New() *Store {
	s := &Store{}
	s.current.Store(Empty())
	return s
}

// Current returns the published snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish replaces the published snapshot. Readers holding the previous
// snapshot keep a consistent view until they drop it.
func (s *Store) Publish(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(snap)
}
