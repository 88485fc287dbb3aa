// Package api exposes the catalog over HTTP for operator UIs and scripting.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/catalogd/catalogd/internal/engine"
	"github.com/catalogd/catalogd/internal/ws"
)

// Server is the REST API server.
type Server struct {
	engine  *engine.Engine
	hub     *ws.Hub
	logger  *slog.Logger
	port    int
	server  *http.Server
	devMode bool
}

// Option configures the API server.
type Option func(*Server)

// WithDevMode enables CORS for development.
func WithDevMode(dev bool) Option {
	return func(s *Server) {
		s.devMode = dev
	}
}

// WithHub sets the WebSocket hub for sync and drift events.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// New creates a new API server.
func New(eng *engine.Engine, logger *slog.Logger, port int, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		logger: logger,
		port:   port,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = requestLogger(s.logger, mux)
	if s.devMode {
		handler = corsMiddleware(handler)
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: handler,
	}

	s.logger.Info("starting api server", "port", s.port, "dev_mode", s.devMode)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/databases", s.handleOnboard)
	mux.HandleFunc("GET /api/databases", s.handleListDatabases)
	mux.HandleFunc("GET /api/databases/{tenant}/stats", s.handleDatabaseStats)
	mux.HandleFunc("GET /api/databases/{tenant}/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/databases/{tenant}/tables/{table}", s.handleTableCatalog)
	mux.HandleFunc("GET /api/databases/{tenant}/tables/{table}/stats", s.handleTableStats)
	mux.HandleFunc("PATCH /api/databases/{tenant}/tables/{table}", s.handleAnnotateTable)
	mux.HandleFunc("PATCH /api/databases/{tenant}/tables/{table}/columns/{column}", s.handleAnnotateColumn)
	mux.HandleFunc("GET /api/databases/{tenant}/drift", s.handleDrift)
	mux.HandleFunc("PUT /api/databases/{tenant}/sync", s.handleSync)
	mux.HandleFunc("GET /api/databases/{tenant}/erd", s.handleERD)

	mux.HandleFunc("POST /api/connections/test", s.handleTestConnection)

	if s.hub != nil {
		mux.HandleFunc("/api/ws", s.hub.HandleWebSocket)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
