// Package server provides the HTTP API for calcombine.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ziltek/calcombine/internal/aggregate"
	"github.com/ziltek/calcombine/internal/config"
	"github.com/ziltek/calcombine/internal/ingest"
	"github.com/ziltek/calcombine/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the calcombine API.
type Server struct {
	store    storage.Store
	combiner *aggregate.Combiner
	ingestor *ingest.Ingestor
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. combiner may be nil, in which
// case the combine endpoint answers 501.
func NewServer(
	store storage.Store,
	combiner *aggregate.Combiner,
	ingestor *ingest.Ingestor,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		combiner: combiner,
		ingestor: ingestor,
		config:   cfg,
		logger:   logger,
	}
	s.server = &http.Server{Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
	if cfg != nil {
		s.server.Addr = cfg.Addr()
	}
	return s
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/records", s.handleListRecords)
		r.Put("/records", s.handleReplaceRecords)
		r.Post("/records", s.handleAddRecord)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Put("/records/{id}", s.handleUpdateRecord)
		r.Delete("/records/{id}", s.handleDeleteRecord)

		r.Post("/uploads", s.handleUpload)
		r.Post("/combine", s.handleCombine)
		r.Get("/export.csv", s.handleExportCSV)

		r.Get("/reports/tests-per-year", s.handleTestsPerYear)
		r.Get("/reports/tests-per-month", s.handleTestsPerMonth)
		r.Get("/reports/measurements", s.handleMeasurements)
		r.Get("/reports/trends", s.handleTrends)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
