// Package http provides the recalld HTTP API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/chat"
	"github.com/fyrsmithlabs/recalld/internal/indexer"
	"github.com/fyrsmithlabs/recalld/internal/notes"
)

// Server provides HTTP endpoints for recalld.
type Server struct {
	echo         *echo.Echo
	orchestrator *chat.Orchestrator
	store        *notes.Store
	pipeline     *indexer.Pipeline
	logger       *zap.Logger
	config       *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// DefaultMode is the embedding backend used by index mutations that
	// omit modelMode.
	DefaultMode string
}

// NewServer creates a new HTTP server.
func NewServer(orchestrator *chat.Orchestrator, store *notes.Store, pipeline *indexer.Pipeline, logger *zap.Logger, cfg *Config) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("chat orchestrator cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("note store cannot be nil")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("indexing pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:        "localhost",
			Port:        8080,
			DefaultMode: "A",
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			// Message content stays out of logs.
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:         e,
		orchestrator: orchestrator,
		store:        store,
		pipeline:     pipeline,
		logger:       logger,
		config:       cfg,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/chat", s.handleChat)

	s.echo.POST("/index", s.handleIndexUpsert)
	s.echo.PUT("/index", s.handleIndexUpsert)
	s.echo.DELETE("/index", s.handleIndexDelete)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/notes", s.handleNoteCreate)
	v1.GET("/notes", s.handleNoteList)
	v1.GET("/notes/:id", s.handleNoteGet)
	v1.PUT("/notes/:id", s.handleNoteUpdate)
	v1.DELETE("/notes/:id", s.handleNoteDelete)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Handler exposes the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
