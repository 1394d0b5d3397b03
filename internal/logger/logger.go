package logger

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the root logger. The level comes straight from the environment
// rather than config; config loading itself wants a logger.
func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Str("run_id", uuid.New().String()).
		Logger()

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	return logger.Level(level)
}

var Module = fx.Provide(New)
