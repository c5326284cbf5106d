package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/flow"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/leads"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/parse"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/research"
	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResearch runs a direct multi-provider query outside any session.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string   `json:"query"`
		Providers []string `json:"providers,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	var selection research.Selection
	if len(req.Providers) > 0 {
		selection = make(research.Selection, len(req.Providers))
		for _, name := range req.Providers {
			selection[name] = true
		}
	}

	results, err := s.orch.Orchestrate(r.Context(), req.Query, selection)
	if err != nil {
		zap.L().Error("server: research failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "all research providers failed")
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusBadGateway, "all research providers failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":  results,
		"combined": research.Combine(results),
	})
}

// handleCompanySummary serves the cached company summary for a scope, or
// kicks off generation from the identifiers in the message when none is
// cached yet. Generation runs in the background; the caller polls the summary
// endpoint for the result.
func (s *Server) handleCompanySummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope   string `json:"scope"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		writeError(w, http.StatusBadRequest, "scope is required")
		return
	}

	var summary model.CompanySummary
	found, err := session.GetJSON(r.Context(), s.store, req.Scope, session.KeySummary, &summary)
	if err != nil {
		zap.L().Error("server: load summary", zap.String("scope", req.Scope), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load summary failed")
		return
	}
	if found {
		writeJSON(w, http.StatusOK, summary)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusNotFound, "summary not ready")
		return
	}

	inputs := parse.Parse(req.Message)
	if problems := parse.Validate(inputs); len(problems) > 0 {
		writeError(w, http.StatusBadRequest, strings.Join(problems, "; "))
		return
	}

	// Generation outlives the request; tie it to the process, not r.Context().
	s.coord.Start(context.Background(), req.Scope, inputs)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "generating", "scope": req.Scope})
}

// handleLeadsGenerate starts prospect generation for a scope whose target
// audience was already confirmed or saved.
func (s *Server) handleLeadsGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		writeError(w, http.StatusBadRequest, "scope is required")
		return
	}

	var audience model.TargetAudience
	found, err := session.GetJSON(r.Context(), s.store, req.Scope, session.KeyTargetAudience, &audience)
	if err != nil {
		zap.L().Error("server: load target audience", zap.String("scope", req.Scope), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load target audience failed")
		return
	}
	if !found {
		writeError(w, http.StatusConflict, "no confirmed target audience")
		return
	}

	scope := req.Scope
	go func() {
		if err := s.leads.Generate(context.Background(), scope); err != nil {
			zap.L().Error("server: lead generation failed", zap.String("scope", scope), zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "generating", "scope": scope})
}

// handleSaveTargetAudience persists an externally edited target audience so
// a later leads request can use it.
func (s *Server) handleSaveTargetAudience(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope              string               `json:"scope"`
		TargetAudienceData model.TargetAudience `json:"targetAudienceData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		writeError(w, http.StatusBadRequest, "scope is required")
		return
	}

	if err := session.SetJSON(r.Context(), s.store, req.Scope, session.KeyTargetAudience, req.TargetAudienceData); err != nil {
		zap.L().Error("server: save target audience", zap.String("scope", req.Scope), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save target audience failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "scope": req.Scope})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope   string `json:"scope"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		writeError(w, http.StatusBadRequest, "scope is required")
		return
	}

	if err := s.flow.Enter(r.Context(), req.Scope, req.Message); err != nil {
		if eris.Is(err, flow.ErrSessionActive) {
			writeError(w, http.StatusConflict, "session already active")
			return
		}
		writeError(w, http.StatusInternalServerError, "session start failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "scope": req.Scope})
}

func (s *Server) handleSessionRespond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope   string `json:"scope"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		writeError(w, http.StatusBadRequest, "scope is required")
		return
	}

	if err := s.flow.Respond(r.Context(), req.Scope, req.Message); err != nil {
		if eris.Is(err, flow.ErrNoSession) {
			writeError(w, http.StatusNotFound, "no active session")
			return
		}
		zap.L().Error("server: respond failed", zap.String("scope", req.Scope), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "response handling failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleMessages serves the polled chat history for a scope. The offset
// query parameter resumes from a previous poll's next_offset.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	msgs, next := s.log.since(scope, offset)
	writeJSON(w, http.StatusOK, map[string]any{
		"messages":    msgs,
		"next_offset": next,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")

	var summary model.CompanySummary
	found, err := session.GetJSON(r.Context(), s.store, scope, session.KeySummary, &summary)
	if err != nil {
		zap.L().Error("server: load summary", zap.String("scope", scope), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load summary failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "summary not ready")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLeadsExport(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")

	var records []model.ProspectRecord
	found, err := session.GetJSON(r.Context(), s.store, scope, session.KeyLeads, &records)
	if err != nil {
		zap.L().Error("server: load leads", zap.String("scope", scope), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load leads failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no leads generated")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="prospects.xlsx"`)
	if err := leads.ExportXLSX(w, records); err != nil {
		zap.L().Error("server: export leads", zap.String("scope", scope), zap.Error(err))
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sessions, err := s.store.ListSessions(r.Context(), limit)
	if err != nil {
		zap.L().Error("server: list sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list sessions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}
