// This file implements the dashboard endpoints and the backup endpoints.

package http

import (
	"fmt"
	"net/http"
	"time"

	"platito/internal/core"
	"platito/internal/log"
	"platito/internal/services"
)

func (s *Server) handleBalances(r *http.Request) (any, error) {
	q := r.URL.Query()
	includeArchived, err := queryBool(q, "includeArchived")
	if err != nil {
		return nil, err
	}
	display, err := queryCurrency(q, "currency")
	if err != nil {
		return nil, err
	}
	return s.svc.Dashboard.Balances(r.Context(), services.BalanceOptions{
		IncludeArchived: includeArchived,
		Display:         display,
	})
}

func (s *Server) handleSummary(r *http.Request) (any, error) {
	q := r.URL.Query()
	offset, err := queryInt(q, "offset", 0)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, badRequest("offset must not be negative")
	}
	window := core.TimeWindow(trimmedQuery(r, "window"))
	if window != "" && !window.IsValid() {
		return nil, fmt.Errorf("time window %q: %w", window, core.ErrInvalidWindow)
	}
	display, err := queryCurrency(q, "currency")
	if err != nil {
		return nil, err
	}
	return s.svc.Dashboard.Summary(r.Context(), window, offset, display)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Backup.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("platito-%s-%s.json", s.opts.Dataset, snap.ExportedAt.UTC().Format("20060102-150405"))
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="`+name+`"`).
		Body(snap).
		Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snap services.Snapshot
	if err := DecodeJSON(r, &snap, maxImportBytes); err != nil {
		writeError(w, r, err)
		return
	}
	start := time.Now()
	res, err := s.svc.Backup.Import(r.Context(), snap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Snapshot imported",
		"accounts", res.Accounts,
		"transactions", res.Transactions,
		"transfers", res.Transfers,
		log.FieldDuration, time.Since(start).Milliseconds())
	OK(w, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Backup.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent(w)
}
