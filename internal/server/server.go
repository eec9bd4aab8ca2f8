// Package server provides the HTTP API for Serasi.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/config"
	"github.com/balailatih/serasi/internal/engine"
)

// Server is the HTTP server for the Serasi API.
type Server struct {
	engine *engine.Engine
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(e *engine.Engine, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine: e,
		config: cfg,
		logger: logger,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	r.Get("/api/v1/corpora/{kind}", s.handleListCorpus)
	r.Get("/api/v1/corpora/{kind}/{index}", s.handleGetDocument)
	r.Get("/api/v1/corpora/{kind}/{index}/preprocess", s.handlePreprocessTrace)
	r.Get("/api/v1/search", s.handleSearch)

	r.Post("/api/v1/matrix", s.handleBuildMatrix)
	r.Get("/api/v1/matrix/stats", s.handleMatrixStats)
	r.Get("/api/v1/pairs/{training}/{job}", s.handleComparePair)
	r.Get("/api/v1/pairs/{training}/{job}/tfidf/{step}", s.handleTFIDFTrace)
	r.Get("/api/v1/pairs/{training}/{job}/jaccard/{step}", s.handleJaccardTrace)
	r.Post("/api/v1/comparison", s.handleComparison)

	r.Post("/api/v1/recommendations", s.handleRecommend)
	r.Post("/api/v1/recommendations/export", s.handleExportRecommendations)
	r.Get("/api/v1/thresholds", s.handleGetThresholds)
	r.Put("/api/v1/thresholds", s.handleUpdateThresholds)

	r.Post("/api/v1/analysis", s.handleAnalyze)
	r.Post("/api/v1/analysis/export", s.handleExportAnalysis)

	r.Get("/api/v1/experiments", s.handleListExperiments)
	r.Get("/api/v1/experiments/{id}", s.handleGetExperiment)
	r.Get("/api/v1/experiments/{id}/recommendations", s.handleGetExperimentRecommendations)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
