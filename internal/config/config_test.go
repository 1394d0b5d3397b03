package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("reads environment with defaults", func(t *testing.T) {
		t.Setenv("ROSTER_CSV_URL", "https://example.test/roster.csv")
		t.Setenv("HENRIK_API_KEY", "key-123")
		t.Setenv("DATA_FILE", "")
		t.Setenv("HISTORY_DIR", "")

		cfg, err := Load(zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "https://example.test/roster.csv", cfg.RosterURL)
		assert.Equal(t, "key-123", cfg.HenrikAPIKey)
		assert.Equal(t, "data.json", cfg.DataFile)
		assert.Equal(t, "history", cfg.HistoryDir)
	})

	t.Run("roster url is required", func(t *testing.T) {
		t.Setenv("ROSTER_CSV_URL", "")
		_, err := Load(zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("missing credential is not fatal", func(t *testing.T) {
		// Absence surfaces later as upstream authorization failures.
		t.Setenv("ROSTER_CSV_URL", "https://example.test/roster.csv")
		t.Setenv("HENRIK_API_KEY", "")

		cfg, err := Load(zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, cfg.HenrikAPIKey)
	})
}
