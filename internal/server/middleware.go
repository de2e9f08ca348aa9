package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ZstdMiddleware decompresses zstd request bodies and zstd-compresses
// responses for clients that accept it. Whitelisted routes pass through.
// A body that decompresses past bodyLimit bytes is rejected with 413.
func ZstdMiddleware(bodyLimit int, whitelistedRoutes []string) (fiber.Handler, error) {
	if bodyLimit <= 0 {
		return nil, fmt.Errorf("zstd middleware: body limit must be positive, got %d", bodyLimit)
	}
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{"/health", "/metrics"}
		log.Debug().
			Any("default", whitelistedRoutes).
			Msg("Whitelisted routes not specified, using default whitelist")
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(bodyLimit)))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		decoder.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	return func(c *fiber.Ctx) error {
		if slices.Contains(whitelistedRoutes, c.Path()) {
			return c.Next()
		}

		if strings.EqualFold(c.Get(fiber.HeaderContentEncoding), "zstd") {
			if body := c.Request().Body(); len(body) > 0 {
				decompressed, err := decoder.DecodeAll(body, nil)
				if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) ||
					(err == nil && len(decompressed) > bodyLimit) {
					log.Warn().Int("limit", bodyLimit).Msg("Decompressed request body exceeds limit")
					return fiber.NewError(fiber.StatusRequestEntityTooLarge,
						fmt.Sprintf("Decompressed body exceeds %d bytes", bodyLimit))
				}
				if err != nil {
					log.Err(err).Msg("Failed to decompress request")
					return fiber.NewError(fiber.StatusBadRequest,
						fmt.Sprintf("Failed to decompress zstd data: %s", err))
				}
				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
				log.Trace().Int("size", len(decompressed)).Msg("Request body decompressed")
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		if strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd") {
			responseBody := c.Response().Body()
			if len(responseBody) > 0 {
				compressed := encoder.EncodeAll(responseBody, nil)
				c.Response().SetBodyRaw(compressed)
				c.Set(fiber.HeaderContentEncoding, "zstd")

				log.Trace().
					Int("original_size", len(responseBody)).
					Int("compressed_size", len(compressed)).
					Msg("Response body compressed")
			}
		}

		return nil
	}, nil
}

// RequestIDMiddleware tags every request with a UUID, reusing the caller's
// x-request-id when present.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(RequestIDHeader, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDHeader).(string)
	return id
}
