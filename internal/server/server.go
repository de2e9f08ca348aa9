// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/outrank/internal/problem"
	"github.com/tensorplex-labs/outrank/internal/ranking"
	"github.com/tensorplex-labs/outrank/internal/scoring"
)

const shutdownTimeout = 5 * time.Second

// NewServer builds the app and registers every route. A nil config or engine
// falls back to the defaults.
func NewServer(serverConfig *ServerConfig, engine *scoring.Engine) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{
			Host:      DefaultServerHost,
			Port:      DefaultServerPort,
			BodyLimit: DefaultBodyLimit,
		}
	}
	if serverConfig.BodyLimit <= 0 {
		serverConfig.BodyLimit = DefaultBodyLimit
	}
	if engine == nil {
		engine = scoring.NewEngine()
	}

	log.Info().
		Any("serverConfig", serverConfig).
		Str("method", engine.Method.String()).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             serverConfig.BodyLimit,
	})

	server := &Server{
		App:     app,
		config:  serverConfig,
		engine:  engine,
		metrics: newMetrics(),
	}

	app.Use(recover.New())
	app.Use(RequestIDMiddleware())
	app.Use(server.metrics.middleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	zstdHandler, err := ZstdMiddleware(serverConfig.BodyLimit, []string{"/health", "/metrics"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up zstd middleware")
	}
	app.Use(zstdHandler)

	app.Get("/health", server.handleHealth)
	app.Get("/metrics", server.metrics.handler())
	app.Post("/score", server.handleScore)
	app.Post("/compare", server.handleCompare)

	return server
}

// statusFor maps rejected input to 400 and everything else to 500.
func statusFor(err error) int {
	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case scoring.IsValidationError(err),
		errors.Is(err, ranking.ErrLengthMismatch),
		errors.Is(err, problem.ErrMalformed),
		errors.Is(err, problem.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := statusFor(err)

	event := log.Warn()
	if code >= fiber.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Str("request_id", requestID(ctx)).
		Msg("Request failed")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{Body: body, Error: &errMsg}
	}
	return StdResponse[T]{Body: body}
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Start listens until ctx is cancelled, then shuts the app down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr()).Msg("Starting scoring server")
		errCh <- s.App.Listen(s.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down scoring server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.App.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
