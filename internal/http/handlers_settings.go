// This file implements the settings and exchange rate endpoints.

package http

import (
	"context"
	"net/http"
	"time"

	"platito/internal/core"
	"platito/internal/middleware/ratelimit"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, err := bindAndValidate[settingsPatchRequest](s.validate, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.Settings.Update(r.Context(), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, st)
}

type ratesResponse struct {
	Rates             core.ExchangeRateTable `json:"rates"`
	LastUpdatedAt     *time.Time             `json:"lastUpdatedAt,omitempty"`
	UpdateCount       int                    `json:"updateCount"`
	CooldownRemaining int                    `json:"cooldownRemainingSeconds"`
}

func (s *Server) ratesResponse(r *http.Request) (ratesResponse, error) {
	st, err := s.svc.Settings.Load(r.Context())
	if err != nil {
		return ratesResponse{}, err
	}
	left, err := s.svc.Rates.RemainingCooldown(r.Context())
	if err != nil {
		return ratesResponse{}, err
	}
	resp := ratesResponse{
		Rates:         st.ExchangeRates,
		LastUpdatedAt: st.RatesLastUpdatedAt,
		UpdateCount:   st.RatesUpdateCount,
	}
	if left > 0 {
		resp.CooldownRemaining = ratelimit.RetryAfterSeconds(left)
	}
	return resp, nil
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ratesResponse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, resp)
}

func (s *Server) handleReplaceRates(w http.ResponseWriter, r *http.Request) {
	s.writeRates(w, r, s.svc.Rates.Replace)
}

func (s *Server) handlePatchRates(w http.ResponseWriter, r *http.Request) {
	s.writeRates(w, r, s.svc.Rates.Patch)
}

func (s *Server) writeRates(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, t core.ExchangeRateTable) (core.ExchangeRateTable, error)) {
	var table core.ExchangeRateTable
	if err := DecodeJSON(r, &table, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	if len(table) == 0 {
		writeError(w, r, badRequest("no exchange rates given"))
		return
	}
	if _, err := apply(r.Context(), table); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.ratesResponse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, resp)
}

// handleRefreshRates fetches fresh quotes. Without force=true a refresh
// inside the cooldown answers 429 with Retry-After.
func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	force, err := queryBool(r.URL.Query(), "force")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.svc.Rates.FetchAndUpdate(r.Context(), force); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.ratesResponse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, resp)
}
