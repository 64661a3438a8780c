// Package api implements the HTTP surface consumed by the companion web
// client: classification endpoints, the per-user sync read, and direct CRUD
// for each entity collection. Every endpoint authenticates by the opaque
// x-user-id header.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/assistant"
)

// userIDHeader is the caller-supplied opaque user identifier.
const userIDHeader = "x-user-id"

// Server is the HTTP API server.
type Server struct {
	cfg       assistant.ServerConfig
	assistant *assistant.Assistant
	logger    *slog.Logger
	server    *http.Server
}

// New creates the API server over the shared pipeline.
func New(cfg assistant.ServerConfig, a *assistant.Assistant, logger *slog.Logger) *Server {
	if cfg.Address == "" {
		cfg.Address = ":3000"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		assistant: a,
		logger:    logger.With("component", "api"),
	}
}

// Handler builds the route table. Exposed separately so tests can drive it
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/analyze", s.requireUser(s.handleAnalyze))
	mux.HandleFunc("POST /api/budget/analyze", s.requireUser(s.handleBudgetAnalyze))
	mux.HandleFunc("POST /api/tips/generate", s.requireUser(s.handleTipsGenerate))
	mux.HandleFunc("GET /api/sync", s.requireUser(s.handleSync))

	mux.HandleFunc("POST /api/todos", s.requireUser(s.handleTodoCreate))
	mux.HandleFunc("PATCH /api/todos/{id}", s.requireUser(s.handleTodoToggle))
	mux.HandleFunc("DELETE /api/todos/{id}", s.requireUser(s.handleTodoDelete))

	mux.HandleFunc("POST /api/transactions", s.requireUser(s.handleTransactionCreate))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireUser(s.handleTransactionDelete))

	mux.HandleFunc("POST /api/events", s.requireUser(s.handleEventCreate))
	mux.HandleFunc("DELETE /api/events/{id}", s.requireUser(s.handleEventDelete))

	mux.HandleFunc("POST /api/goals", s.requireUser(s.handleGoalCreate))
	mux.HandleFunc("PATCH /api/goals/{id}", s.requireUser(s.handleGoalToggle))
	mux.HandleFunc("DELETE /api/goals/{id}", s.requireUser(s.handleGoalDelete))

	mux.HandleFunc("POST /api/notes", s.requireUser(s.handleNoteCreate))
	mux.HandleFunc("PATCH /api/notes/{id}", s.requireUser(s.handleNoteUpdate))
	mux.HandleFunc("DELETE /api/notes/{id}", s.requireUser(s.handleNoteDelete))

	return corsMiddleware(mux)
}

// Start begins serving the API.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("API server starting", "address", s.cfg.Address)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
		s.logger.Info("API server stopped")
	}
}

// requireUser rejects requests without the opaque user identifier header.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User ID required"})
			return
		}
		next(w, r, userID)
	}
}

// corsMiddleware mirrors the permissive policy the web client relies on.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-user-id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
