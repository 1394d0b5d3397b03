package repository

import (
	"os"
	"path/filepath"
	"testing"

	"squad-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(id string, startedAt int64) domain.Operation {
	return domain.Operation{ID: id, Map: "Ascent", Mode: "Competitive", StartedAt: startedAt, Result: domain.ResultWin, Score: "13-7"}
}

func testHistoryStore(t *testing.T) *HistoryStore {
	t.Helper()
	return NewHistoryStore(t.TempDir(), zerolog.Nop())
}

func TestHistoryStoreMergeDay(t *testing.T) {
	t.Run("creates the day file on first merge", func(t *testing.T) {
		s := testHistoryStore(t)
		added, err := s.MergeDay("2026-08-28", []domain.Operation{op("m-1", 100), op("m-2", 200)})
		require.NoError(t, err)
		assert.Equal(t, 2, added)

		ops, err := s.LoadDay("2026-08-28")
		require.NoError(t, err)
		require.Len(t, ops, 2)
		assert.Equal(t, "m-2", ops[0].ID) // newest first
	})

	t.Run("replay is a no-op and writes nothing", func(t *testing.T) {
		s := testHistoryStore(t)
		batch := []domain.Operation{op("m-1", 100)}
		_, err := s.MergeDay("2026-08-28", batch)
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(s.dir, "2026-08-28.json"))
		require.NoError(t, err)
		before := info.ModTime()

		added, err := s.MergeDay("2026-08-28", batch)
		require.NoError(t, err)
		assert.Equal(t, 0, added)

		info, err = os.Stat(filepath.Join(s.dir, "2026-08-28.json"))
		require.NoError(t, err)
		assert.Equal(t, before, info.ModTime())

		ops, err := s.LoadDay("2026-08-28")
		require.NoError(t, err)
		assert.Len(t, ops, 1)
	})

	t.Run("merges only unseen match ids", func(t *testing.T) {
		s := testHistoryStore(t)
		_, err := s.MergeDay("2026-08-28", []domain.Operation{op("m-1", 100)})
		require.NoError(t, err)

		added, err := s.MergeDay("2026-08-28", []domain.Operation{op("m-1", 100), op("m-3", 300)})
		require.NoError(t, err)
		assert.Equal(t, 1, added)

		ops, err := s.LoadDay("2026-08-28")
		require.NoError(t, err)
		assert.Len(t, ops, 2)
	})

	t.Run("corrupt day file is surfaced, not clobbered", func(t *testing.T) {
		s := testHistoryStore(t)
		require.NoError(t, os.WriteFile(filepath.Join(s.dir, "2026-08-28.json"), []byte("{broken"), 0o644))

		_, err := s.MergeDay("2026-08-28", []domain.Operation{op("m-1", 100)})
		assert.Error(t, err)
	})
}

func TestHistoryStoreDays(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		s := NewHistoryStore(filepath.Join(t.TempDir(), "absent"), zerolog.Nop())
		days, err := s.Days()
		require.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("most recent first, non-day files ignored", func(t *testing.T) {
		s := testHistoryStore(t)
		for _, day := range []string{"2026-08-27", "2026-08-29", "2026-08-28"} {
			_, err := s.MergeDay(day, []domain.Operation{op("m-"+day, 1)})
			require.NoError(t, err)
		}
		require.NoError(t, os.WriteFile(filepath.Join(s.dir, "README.json"), []byte("[]"), 0o644))

		days, err := s.Days()
		require.NoError(t, err)
		assert.Equal(t, []string{"2026-08-29", "2026-08-28", "2026-08-27"}, days)
	})
}

func TestHistoryStoreRecent(t *testing.T) {
	t.Run("walks days newest to oldest and truncates", func(t *testing.T) {
		s := testHistoryStore(t)
		_, err := s.MergeDay("2026-08-27", []domain.Operation{op("old-1", 10), op("old-2", 20)})
		require.NoError(t, err)
		_, err = s.MergeDay("2026-08-29", []domain.Operation{op("new-1", 910), op("new-2", 920), op("new-3", 930)})
		require.NoError(t, err)

		recent, err := s.Recent(4)
		require.NoError(t, err)
		require.Len(t, recent, 4)
		assert.Equal(t, "new-3", recent[0].ID)
		assert.Equal(t, "new-2", recent[1].ID)
		assert.Equal(t, "new-1", recent[2].ID)
		assert.Equal(t, "old-2", recent[3].ID)
	})

	t.Run("fewer operations than the limit", func(t *testing.T) {
		s := testHistoryStore(t)
		_, err := s.MergeDay("2026-08-29", []domain.Operation{op("m-1", 1)})
		require.NoError(t, err)

		recent, err := s.Recent(4)
		require.NoError(t, err)
		assert.Len(t, recent, 1)
	})
}
