package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"squad-tracker/internal/domain"
	"squad-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublishTest(t *testing.T) (*PublishService, string, string) {
	t.Helper()
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	historyDir := filepath.Join(dir, "history")

	svc := NewPublishService(
		repository.NewArtifactStore(dataFile, zerolog.Nop()),
		repository.NewHistoryStore(historyDir, zerolog.Nop()),
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return time.UnixMilli(1_756_400_000_000) }
	return svc, dataFile, historyDir
}

func readArtifact(t *testing.T, path string) domain.Artifact {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var artifact domain.Artifact
	require.NoError(t, json.Unmarshal(data, &artifact))
	return artifact
}

// startedAt values on two distinct UTC days.
const (
	day1TS = int64(1_787_572_800) // 2026-08-24
	day2TS = int64(1_787_918_400) // 2026-08-28
)

func dayOp(id string, ts int64) domain.Operation {
	return domain.Operation{ID: id, Map: "Ascent", StartedAt: ts, Result: domain.ResultWin, Score: "13-7"}
}

func TestPublish(t *testing.T) {
	players := []domain.ProfileSnapshot{
		{RiotID: "alice#111", CurrentRank: "Gold 2"},
		{RiotID: "bob#222", CurrentRank: "Gold 1"},
	}

	t.Run("writes the artifact with recent operations and dates", func(t *testing.T) {
		svc, dataFile, _ := newPublishTest(t)
		ops := []domain.Operation{dayOp("m-new", day2TS), dayOp("m-old", day1TS)}

		require.NoError(t, svc.Publish(players, ops))

		artifact := readArtifact(t, dataFile)
		assert.Equal(t, int64(1_756_400_000_000), artifact.UpdatedAt)
		assert.Equal(t, []string{"alice#111", "bob#222"}, []string{artifact.Players[0].RiotID, artifact.Players[1].RiotID})
		require.Len(t, artifact.Operations, 2)
		assert.Equal(t, "m-new", artifact.Operations[0].ID)
		require.Len(t, artifact.AvailableDates, 2)
		assert.True(t, artifact.AvailableDates[0] > artifact.AvailableDates[1]) // newest first
	})

	t.Run("history days are bucketed by UTC date", func(t *testing.T) {
		svc, _, historyDir := newPublishTest(t)
		require.NoError(t, svc.Publish(players, []domain.Operation{dayOp("m-1", day2TS)}))

		day := time.Unix(day2TS, 0).UTC().Format("2006-01-02")
		_, err := os.Stat(filepath.Join(historyDir, day+".json"))
		assert.NoError(t, err)
	})

	t.Run("replaying the same operations adds no duplicates", func(t *testing.T) {
		svc, dataFile, _ := newPublishTest(t)
		ops := []domain.Operation{dayOp("m-1", day2TS), dayOp("m-2", day2TS)}

		require.NoError(t, svc.Publish(players, ops))
		require.NoError(t, svc.Publish(players, ops))

		artifact := readArtifact(t, dataFile)
		assert.Len(t, artifact.Operations, 2)
		assert.Len(t, artifact.AvailableDates, 1)
	})

	t.Run("live view is capped at the recent limit", func(t *testing.T) {
		svc, dataFile, _ := newPublishTest(t)
		ops := []domain.Operation{
			dayOp("m-1", day2TS), dayOp("m-2", day2TS+60), dayOp("m-3", day2TS+120),
			dayOp("m-4", day1TS), dayOp("m-5", day1TS+60),
		}

		require.NoError(t, svc.Publish(players, ops))

		artifact := readArtifact(t, dataFile)
		require.Len(t, artifact.Operations, 4)
		assert.Equal(t, "m-3", artifact.Operations[0].ID)
	})

	t.Run("history accumulates across runs", func(t *testing.T) {
		svc, dataFile, _ := newPublishTest(t)
		require.NoError(t, svc.Publish(players, []domain.Operation{dayOp("m-1", day1TS)}))
		require.NoError(t, svc.Publish(players, []domain.Operation{dayOp("m-2", day2TS)}))

		artifact := readArtifact(t, dataFile)
		assert.Len(t, artifact.Operations, 2)
		assert.Len(t, artifact.AvailableDates, 2)
	})

	t.Run("no operations still publishes players", func(t *testing.T) {
		svc, dataFile, _ := newPublishTest(t)
		require.NoError(t, svc.Publish(players, nil))

		artifact := readArtifact(t, dataFile)
		assert.Len(t, artifact.Players, 2)
		assert.Empty(t, artifact.Operations)
	})
}
