// Package config defines environment configuration structs and loaders.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tensorplex-labs/outrank/internal/scoring"
)

type AppConfig struct {
	ScoringEnvConfig
	ServerEnvConfig
	ClientEnvConfig
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ScoringEnvConfig holds the outranking engine defaults.
type ScoringEnvConfig struct {
	Method           string  `env:"OUTRANK_METHOD" envDefault:"prosa-c"`
	Sustainability   float64 `env:"OUTRANK_SUSTAINABILITY" envDefault:"0.3"`
	StrictThresholds bool    `env:"OUTRANK_STRICT_THRESHOLDS" envDefault:"false"`
	WeightTolerance  float64 `env:"OUTRANK_WEIGHT_TOLERANCE" envDefault:"0"`
}

// EngineOptions translates the environment into engine options.
func (c ScoringEnvConfig) EngineOptions() ([]scoring.EngineOption, error) {
	method, err := scoring.ParseMethod(c.Method)
	if err != nil {
		return nil, fmt.Errorf("OUTRANK_METHOD: %w", err)
	}
	if c.Sustainability < 0 {
		return nil, fmt.Errorf("OUTRANK_SUSTAINABILITY=%g: %w", c.Sustainability, scoring.ErrParameterRange)
	}

	opts := []scoring.EngineOption{
		scoring.WithMethod(method),
		scoring.WithDefaultSustainability(c.Sustainability),
	}
	if c.StrictThresholds {
		opts = append(opts, scoring.WithStrictThresholds())
	}
	if c.WeightTolerance > 0 {
		opts = append(opts, scoring.WithWeightTolerance(c.WeightTolerance))
	}
	return opts, nil
}

// ServerEnvConfig configures the server.
type ServerEnvConfig struct {
	Host      string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port      int    `env:"SERVER_PORT" envDefault:"8888"`
	BodyLimit int    `env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
}

// ClientEnvConfig configures the client.
type ClientEnvConfig struct {
	ServerURL     string        `env:"OUTRANK_SERVER_URL" envDefault:"http://127.0.0.1:8888"`
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT" envDefault:"30s"`
	RetryMax      int           `env:"CLIENT_RETRY_MAX" envDefault:"3"`
	RetryWait     time.Duration `env:"CLIENT_RETRY_WAIT" envDefault:"500ms"`
}
