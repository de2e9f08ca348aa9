// Package logger provides a global logger for the application
package logger

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// Flags carries the log level switches of a binary's command line.
type Flags struct {
	Debug bool
	Trace bool
	Info  bool
}

type logEnvConfig struct {
	Environment string `env:"ENVIRONMENT, default=prod"`
	Level       string `env:"LOG_LEVEL"`
}

func initLogger(flags Flags) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file loaded, using process environment")
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	var envCfg logEnvConfig
	if err := envconfig.Process(context.Background(), &envCfg); err != nil {
		log.Warn().Err(err).Msg("Failed to read logging environment, using defaults")
		envCfg.Environment = "prod"
	}

	environment := strings.ToLower(envCfg.Environment)

	var logLevel zerolog.Level
	switch environment {
	case "dev", "test":
		logLevel = zerolog.TraceLevel
		log.Info().Str("environment", environment).Msg("Development/Test environment detected - enabling all log levels")
	case "prod":
		logLevel = zerolog.InfoLevel
		log.Info().Str("environment", environment).Msg("Production environment detected - enabling info level and above")
	default:
		logLevel = zerolog.InfoLevel
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}

	if envCfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(envCfg.Level)); err == nil {
			logLevel = parsed
		} else {
			log.Warn().Str("LOG_LEVEL", envCfg.Level).Msg("Invalid LOG_LEVEL, keeping environment level")
		}
	}

	if flags.Debug {
		logLevel = zerolog.DebugLevel
		log.Info().Msg("Debug flag detected - overriding environment log level")
	} else if flags.Trace {
		logLevel = zerolog.TraceLevel
		log.Info().Msg("Trace flag detected - overriding environment log level")
	} else if flags.Info {
		logLevel = zerolog.InfoLevel
		log.Info().Msg("Info flag detected - overriding environment log level")
	}

	zerolog.SetGlobalLevel(logLevel)

	zapCfg := zap.NewProductionConfig()
	if environment == "dev" || environment == "test" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel(logLevel))
	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Error().Err(err).Msg("Failed to build zap logger, falling back to no-op")
		zapLogger = zap.NewNop()
	}
	Logger = zapLogger

	log.Debug().Str("environment", environment).Str("level", logLevel.String()).Msg("Logger initialized")
}

func zapLevel(level zerolog.Level) zapcore.Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return zapcore.DebugLevel
	case zerolog.WarnLevel:
		return zapcore.WarnLevel
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// Init initializes the logger with the configuration from the environment
// and the given command line flags.
// It sets up the global logger to use zerolog with console output.
// Example usage:
//
//	logger.Init(logger.Flags{Debug: *debug}) <- inside whichever main() function in your entrypoint
//
// Then, `go run cmd/scoring/main.go --debug`
func Init(flags Flags) {
	initLogger(flags)
}

// Sugar returns a sugared logger for easier use. Before Init it returns a
// no-op logger.
// TODO: replace with zerolog
func Sugar() *zap.SugaredLogger {
	if Logger == nil {
		return zap.NewNop().Sugar()
	}
	return Logger.Sugar()
}
