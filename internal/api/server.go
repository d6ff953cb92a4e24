// Package api exposes the conversation manager over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mindmash-ai/mindmash/internal/app"
	"github.com/mindmash-ai/mindmash/internal/config"
	"github.com/mindmash-ai/mindmash/internal/markdown"
)

// Server represents the API server
type Server struct {
	config     *config.Config
	app        *app.App
	processor  *markdown.Processor
	upgrader   websocket.Upgrader
	logger     *log.Logger
	httpServer *http.Server
}

// NewServer creates a new API server backed by the given application.
func NewServer(cfg *config.Config, mash *app.App) (*Server, error) {
	processor, err := markdown.NewProcessor()
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown processor: %w", err)
	}
	return &Server{
		config:    cfg,
		app:       mash,
		processor: processor,
		logger:    log.WithPrefix("api"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return isLocalhostOrigin(r)
			},
		},
	}, nil
}

// isLocalhostOrigin checks if the WebSocket origin is localhost
func isLocalhostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:") ||
		strings.HasPrefix(origin, "http://[::1]:")
}

// Start starts the API server
func (s *Server) Start(port int) error {
	router := s.setupRoutes()
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("starting API server", "addr", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.corsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", s.handleSessions).Methods("GET", "POST")
	api.HandleFunc("/sessions/{id}", s.handleSession).Methods("GET", "DELETE")
	api.HandleFunc("/sessions/{id}/messages", s.handleMessages).Methods("GET", "POST")
	api.HandleFunc("/sessions/{id}/messages/{messageID}/reaction", s.handleReaction).Methods("PUT")

	api.HandleFunc("/sessions/{id}/threads", s.handleThreads).Methods("GET", "POST")
	api.HandleFunc("/sessions/{id}/threads/{threadID}/activate", s.handleActivateThread).Methods("POST")

	api.HandleFunc("/sessions/{id}/context", s.handleContext).Methods("GET", "POST")
	api.HandleFunc("/sessions/{id}/context/{itemID}/pin", s.handlePinContext).Methods("POST")
	api.HandleFunc("/sessions/{id}/context/{itemID}/unpin", s.handleUnpinContext).Methods("POST")

	api.HandleFunc("/sessions/{id}/target", s.handleTarget).Methods("GET", "PUT")
	api.HandleFunc("/sessions/{id}/compare", s.handleCompare).Methods("POST")
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("GET")

	api.HandleFunc("/sessions/{id}/ws", s.handleEventStream)

	api.HandleFunc("/models", s.handleModels).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	return router
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || isLocalhostOrigin(r) {
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Response helpers
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"offline":   s.config.Offline,
		"sessions":  len(s.app.Sessions()),
	})
}
