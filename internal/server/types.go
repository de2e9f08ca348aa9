package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/outrank/internal/ranking"
	"github.com/tensorplex-labs/outrank/internal/scoring"
)

const (
	RequestIDHeader = "x-request-id"

	// Server defaults
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 4 * 1024 * 1024 // 4MB
)

// Server is the HTTP front end of a scoring engine.
type Server struct {
	App     *fiber.App
	config  *ServerConfig
	engine  *scoring.Engine
	metrics *metrics
}

type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

// ScoreResponse carries one method's results in the document's row order.
type ScoreResponse struct {
	RequestID    string    `json:"request_id"`
	Name         string    `json:"name,omitempty"`
	Method       string    `json:"method"`
	Alternatives []string  `json:"alternatives"`
	Scores       []float64 `json:"scores"`
	NetFlows     []float64 `json:"net_flows"`
	Penalties    []float64 `json:"penalties"`
	Ranks        []int     `json:"ranks"`
	P            []float64 `json:"p"`
	Q            []float64 `json:"q"`
	S            []float64 `json:"s,omitempty"`
}

type MethodScores struct {
	Scores []float64 `json:"scores"`
	Ranks  []int     `json:"ranks"`
}

// CompareResponse scores the same document with both methods. Agreement uses
// the PROMETHEE II ranking as the reference.
type CompareResponse struct {
	RequestID    string            `json:"request_id"`
	Name         string            `json:"name,omitempty"`
	Alternatives []string          `json:"alternatives"`
	PrometheeII  MethodScores      `json:"promethee_ii"`
	ProsaC       MethodScores      `json:"prosa_c"`
	Agreement    ranking.Agreement `json:"agreement"`
}
