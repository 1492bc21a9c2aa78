// Package server provides the HTTP API for the vector store.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bburrier/vector-database-exploration/internal/config"
	"github.com/bburrier/vector-database-exploration/internal/keyword"
	"github.com/bburrier/vector-database-exploration/internal/store"
)

// Server is the HTTP server for the vector database API.
type Server struct {
	store    *store.Store
	keywords *keyword.Index
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. The store is
// constructed once at process start and injected here; nothing reaches it
// through globals.
func NewServer(st *store.Store, kx *keyword.Index, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		store:    st,
		keywords: kx,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(corsAllowAll)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/vectors", s.handleListVectors)
	r.Post("/api/vectors", s.handleAddVector)
	r.Get("/api/vectors/{id}", s.handleGetVector)
	r.Delete("/api/vectors/{id}", s.handleDeleteVector)
	r.Post("/api/search", s.handleSearch)
	r.Post("/api/text-search", s.handleTextSearch)
	r.Post("/api/embedding", s.handleEmbedding)
	r.Post("/api/regenerate", s.handleRegenerate)
	r.Post("/api/change-dimension", s.handleChangeDimension)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsAllowAll permits any origin; the visualization frontend is served from
// a different port during development.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
