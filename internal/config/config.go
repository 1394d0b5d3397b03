package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	HenrikAPIKey string
	RosterURL    string
	DataFile     string
	HistoryDir   string
	LogLevel     string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		HenrikAPIKey: getEnv("HENRIK_API_KEY", ""),
		RosterURL:    getEnv("ROSTER_CSV_URL", ""),
		DataFile:     getEnv("DATA_FILE", "data.json"),
		HistoryDir:   getEnv("HISTORY_DIR", "history"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.RosterURL == "" {
		return nil, fmt.Errorf("ROSTER_CSV_URL is required")
	}

	logger.Info().
		Str("data_file", cfg.DataFile).
		Str("history_dir", cfg.HistoryDir).
		Str("log_level", cfg.LogLevel).
		Bool("api_key_set", cfg.HenrikAPIKey != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
