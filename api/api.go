package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sanahealth/sana/pkg/conversation"
	"github.com/sanahealth/sana/pkg/medparse"
	"github.com/sanahealth/sana/pkg/pipeline"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for the consultation service.
type Server struct {
	config   Config
	engine   *conversation.Engine
	pipeline *pipeline.Pipeline
	parser   *medparse.Parser
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The engine is injected to allow sharing with other components.
func NewServer(config Config, engine *conversation.Engine, audio *pipeline.Pipeline, parser *medparse.Parser, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             pipeline.DefaultMaxUploadBytes + 1<<20,
	})

	s := &Server{
		config:   config,
		engine:   engine,
		pipeline: audio,
		parser:   parser,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/subjects/:subject/messages", s.handleMessage)
	app.Post("/subjects/:subject/audio", s.handleAudio)
	app.Get("/subjects/:subject/history", s.handleHistory)
	app.Post("/symptoms/scan", s.handleSymptomScan)
	app.Post("/consultations/parse", s.handleConsultationParse)

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
