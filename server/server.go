// Package server exposes the waitress over HTTP. Transport stays thin: every
// route delegates to the waitress service and maps domain errors onto status
// codes.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"

	waitressx "github.com/parlaplate/parlaplate/agent/agents/waitress"
	contractx "github.com/parlaplate/parlaplate/agent/contract"
	menux "github.com/parlaplate/parlaplate/agent/menu"
	personax "github.com/parlaplate/parlaplate/agent/persona"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

type Config struct {
	Port string
}

type Server struct {
	app      *fiber.App
	cfg      Config
	waitress *waitressx.Waitress
	library  *menux.Library
}

func New(cfg Config, waitress *waitressx.Waitress, library *menux.Library) (*Server, error) {
	if waitress == nil {
		return nil, errors.New("waitress service is required")
	}
	if library == nil {
		return nil, errors.New("menu library is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(cors.New())

	s := &Server{
		app:      app,
		cfg:      cfg,
		waitress: waitress,
		library:  library,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Info().Str("port", s.cfg.Port).Msg("server listening")
	return s.app.Listen(":" + s.cfg.Port)
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/personas", s.listPersonas)
	api.Get("/restaurants", s.listRestaurants)

	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id", s.showSession)
	api.Post("/sessions/:id/messages", s.postMessage)
	api.Get("/sessions/:id/order", s.exportOrder)
}

// errorHandler maps domain sentinels onto HTTP statuses. Model-call failures
// are 502s so callers know a retry is reasonable; everything else that is not
// a known sentinel stays a 500.
func errorHandler(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(errorBody(fe.Message))
	}

	switch {
	case errors.Is(err, statex.ErrStateNotFound),
		errors.Is(err, menux.ErrRestaurantNotFound),
		errors.Is(err, personax.ErrUnknownPersona):
		return ctx.Status(fiber.StatusNotFound).JSON(errorBody(err.Error()))
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, waitressx.ErrInvalidMessage),
		errors.Is(err, waitressx.ErrInvalidSession):
		return ctx.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
	case errors.Is(err, contractx.ErrClassification),
		errors.Is(err, contractx.ErrReplyGeneration),
		errors.Is(err, contractx.ErrEmbedding):
		log.Error().Err(err).Msg("model call failed")
		return ctx.Status(fiber.StatusBadGateway).JSON(errorBody("upstream model call failed, please retry"))
	default:
		log.Error().Err(err).Msg("unhandled server error")
		return ctx.Status(fiber.StatusInternalServerError).JSON(errorBody("internal error"))
	}
}

func errorBody(msg string) fiber.Map {
	return fiber.Map{"error": msg}
}

func successBody(message string, data any) fiber.Map {
	return fiber.Map{"message": message, "data": data}
}
