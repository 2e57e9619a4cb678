// Package api implements the HTTP interview API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"

	"github.com/quillfin/bursar/internal/advisor"
	"github.com/quillfin/bursar/internal/buildinfo"
	"github.com/quillfin/bursar/internal/conversation"
	"github.com/quillfin/bursar/internal/profile"
	"github.com/quillfin/bursar/internal/risk"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response,
// which is not actionable but worth tracking for debugging.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	engine  *advisor.Engine
	store   *profile.Store
	history *conversation.Store
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, engine *advisor.Engine, store *profile.Store, history *conversation.Store, logger *slog.Logger) *Server {
	return &Server{
		address: address,
		port:    port,
		engine:  engine,
		store:   store,
		history: history,
		logger:  logger,
	}
}

// Handler builds the route table. Split out from Start so tests can
// drive it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("POST /v1/sessions/{id}/turns", s.handleTurn)
	mux.HandleFunc("GET /v1/sessions/{id}/ws", s.handleWS)
	mux.HandleFunc("POST /v1/sessions/{id}/goal", s.handleGoal)
	mux.HandleFunc("GET /v1/sessions/{id}/scope", s.handleScope)
	mux.HandleFunc("POST /v1/sessions/{id}/risk", s.handleRisk)
	mux.HandleFunc("GET /v1/sessions/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/sessions/{id}/gaps", s.handleGaps)
	mux.HandleFunc("GET /v1/sessions/{id}/history", s.handleHistory)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests and blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // long for slow oracle turns
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Bursar",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	id, err := s.store.CreateSession()
	if err != nil {
		s.logger.Error("create session failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"session_id": id}, s.logger)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.store.Get(id)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"session_id": id,
		"profile":    p,
	}, s.logger)
}

// TurnRequest carries one user message for an interview turn.
type TurnRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), id, req.Message)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("turn failed", "session_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "turn failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result, s.logger)
}

// GoalRequest carries goal text for classification.
type GoalRequest struct {
	Goal string `json:"goal"`
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Goal == "" {
		s.errorResponse(w, http.StatusBadRequest, "goal is required")
		return
	}

	outcome, err := s.engine.ClassifyGoal(r.Context(), id, req.Goal)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("goal classification failed", "session_id", id, "error", err)
		s.errorResponse(w, http.StatusBadGateway, "goal classification failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, outcome, s.logger)
}

func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.store.Get(id)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}

	var goalType string
	if p.GoalClassification != nil {
		goalType = *p.GoalClassification
	}
	var populated []string
	for _, f := range p.RequiredFields {
		if p.Populated(f) {
			populated = append(populated, f)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"goal_type":        goalType,
		"required_fields":  p.RequiredFields,
		"populated_fields": populated,
		"missing_fields":   p.MissingFields,
		"complete":         len(p.RequiredFields) > 0 && len(p.MissingFields) == 0,
	}, s.logger)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	assessment, err := s.engine.ComputeRisk(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrNotFound):
			s.errorResponse(w, http.StatusNotFound, "session not found")
		case errors.Is(err, risk.ErrMissingFields):
			s.errorResponse(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error("risk assessment failed", "session_id", id, "error", err)
			s.errorResponse(w, http.StatusBadGateway, "risk assessment failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, assessment, s.logger)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	md, err := s.engine.SummaryText(id)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	switch format {
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, md)

	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, md)

	case "html":
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(md), &buf); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "render summary: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())

	default:
		s.errorResponse(w, http.StatusBadRequest, "unsupported format: "+format+" (use markdown, text or html)")
	}
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	gaps, err := s.engine.Gaps(id)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"gaps":  gaps,
		"count": len(gaps),
	}, s.logger)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(id); err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}

	limit := parseIntParam(r, "limit", conversation.MaxStoredTurns)
	turns, err := s.history.Recent(id, limit)
	if err != nil {
		s.logger.Error("history query failed", "session_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "history query failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"turns": turns,
		"count": len(turns),
	}, s.logger)
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
