// Package server exposes the ledger reports over HTTP as JSON.
//
// Every read endpoint serves from the currently published snapshot and
// never blocks on a refresh in progress.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mkarpov/razborka/internal/engine"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/model"
	"github.com/mkarpov/razborka/internal/report"
	"github.com/mkarpov/razborka/internal/storage"
)

// Server serves report endpoints from an engine's snapshot store.
type Server struct {
	engine  *engine.Engine
	journal *storage.Journal // optional; nil disables the history endpoint
	version string
}

// New creates a server. journal may be nil.
func New(e *engine.Engine, journal *storage.Journal, version string) *Server {
	return &Server{engine: e, journal: journal, version: version}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/disassembly/stats", s.handleStats)
	mux.HandleFunc("GET /api/disassembly/detail", s.handleDetail)
	mux.HandleFunc("GET /api/disassembly/full-detail", s.handleFullDetail)
	mux.HandleFunc("GET /api/disassembly/summary", s.handleSummary)
	mux.HandleFunc("GET /api/disassembly/missing-prices", s.handleMissingPrices)
	mux.HandleFunc("GET /api/disassembly/nomenclature", s.handleNomenclature)
	mux.HandleFunc("GET /api/disassembly/sources", s.handleSources)
	mux.HandleFunc("GET /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/refresh/history", s.handleHistory)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	return mux
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("http server listening", "addr", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	group, err := ledger.ParseGrouping(r.URL.Query().Get("group_by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap := s.engine.Store().Current()
	writeJSON(w, http.StatusOK, report.BuildStats(snap.Ledger, snap.Catalog, group))
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day := q.Get("date_str")
	if day == "" {
		writeError(w, http.StatusBadRequest, errors.New("date_str is required"))
		return
	}
	snap := s.engine.Store().Current()
	detail, err := report.FlowDetail(snap.Ledger, snap.Catalog, day,
		model.FlowType(q.Get("flow")), q.Get("detail_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleFullDetail(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date_str")
	if day == "" {
		writeError(w, http.StatusBadRequest, errors.New("date_str is required"))
		return
	}
	snap := s.engine.Store().Current()
	writeJSON(w, http.StatusOK, report.BuildFullDetail(snap.Ledger, snap.Catalog, day))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "week"
	}
	snap := s.engine.Store().Current()
	summary, err := report.BuildSummary(snap.Ledger, snap.Catalog, period,
		intParam(q.Get("top_in"), 10),
		intParam(q.Get("top_internal"), 10),
		intParam(q.Get("top_out"), 10))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMissingPrices(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Store().Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": report.MissingPrices(snap.Tables, snap.Catalog),
	})
}

func (s *Server) handleNomenclature(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Store().Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": report.Nomenclature(snap.Tables),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Store().Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"sources":  report.Sources(snap.Tables),
		"built_at": snap.BuiltAt,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	run, err := s.engine.Refresh(r.Context(), "http")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []storage.RefreshRun{}})
		return
	}
	runs, err := s.journal.List(r.Context(), intParam(r.URL.Query().Get("limit"), 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []storage.RefreshRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func intParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
