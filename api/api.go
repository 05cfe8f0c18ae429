package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/engine"
)

// Server is the API server for querying the satchel retrieval engine.
type Server struct {
	config Config
	engine *engine.Engine
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server over an assembled engine.
func NewServer(config Config, eng *engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		engine: eng,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearch)
	app.Get("/v1/stats", s.handleStats)
	app.Post("/v1/reindex", s.handleReindex)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
