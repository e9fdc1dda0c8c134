package logger

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

type loggerConfig struct {
	Level   string `env:"LOG_LEVEL"   envDefault:"info"`
	Pretty  bool   `env:"LOG_PRETTY"  envDefault:"false"`
	Service string `env:"SERVICE_NAME" envDefault:"task-api"`
}

// NewLogger creates the process logger from LOG_LEVEL, LOG_PRETTY and SERVICE_NAME.
func NewLogger() *zerolog.Logger {
	cfg, err := env.ParseAs[loggerConfig]()
	if err != nil {
		cfg = loggerConfig{Level: "info", Service: "task-api"}
	}

	return newLogger(cfg)
}

func newLogger(cfg loggerConfig) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	logger = logger.Level(level).With().Timestamp().Str("service", cfg.Service).Logger()

	return &logger
}
