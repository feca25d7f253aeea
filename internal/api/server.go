// Package api exposes the read-only HTTP interface serving stored price
// history.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mwatts/pricewatch/internal/metrics"
)

// Server serves the persisted history file verbatim to the frontend.
type Server struct {
	router      chi.Router
	historyPath string
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(historyPath string, logger *zap.Logger) *Server {
	s := &Server{
		historyPath: historyPath,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/prices", s.getPrices)
	// Path the original frontend was built against.
	r.Get("/api/prices", s.getPrices)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getPrices returns the full persisted history verbatim, an empty array
// when no history exists yet, or a structured error when the file is
// present but unreadable.
func (s *Server) getPrices(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("[]"))
			return
		}
		s.logger.Error("Failed to read history file", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "error reading prices file: " + err.Error()})
		return
	}

	if !json.Valid(data) {
		s.logger.Error("History file is not valid JSON",
			zap.String("path", s.historyPath))
		s.writeJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "prices file is not valid JSON"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; nothing left to do but note it.
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
