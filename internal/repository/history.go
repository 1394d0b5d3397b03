package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"squad-tracker/internal/constants"
	"squad-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// HistoryStore keeps one JSON file of deduplicated operations per calendar
// day under a flat directory. Files grow monotonically across runs and never
// shrink.
type HistoryStore struct {
	dir    string
	logger zerolog.Logger
}

func NewHistoryStore(dir string, logger zerolog.Logger) *HistoryStore {
	return &HistoryStore{dir: dir, logger: logger}
}

func (s *HistoryStore) dayPath(day string) string {
	return filepath.Join(s.dir, day+".json")
}

// LoadDay returns the stored operations for a day key, empty when the day has
// no file yet. A corrupt day file is an error: overwriting it blind would
// violate the never-shrinks contract.
func (s *HistoryStore) LoadDay(day string) ([]domain.Operation, error) {
	data, err := os.ReadFile(s.dayPath(day))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history day %s: %w", day, err)
	}

	var ops []domain.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("parsing history day %s: %w", day, err)
	}
	return ops, nil
}

// MergeDay merges new operations into a day's file, deduplicating by match
// id, and persists only when at least one record was added. Returns the
// number of records added, so replays are observable no-ops.
func (s *HistoryStore) MergeDay(day string, ops []domain.Operation) (int, error) {
	existing, err := s.LoadDay(day)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, op := range existing {
		seen[op.ID] = struct{}{}
	}

	added := 0
	for _, op := range ops {
		if _, ok := seen[op.ID]; ok {
			continue
		}
		seen[op.ID] = struct{}{}
		existing = append(existing, op)
		added++
	}

	if added == 0 {
		return 0, nil
	}

	sort.SliceStable(existing, func(i, j int) bool {
		return existing[i].StartedAt > existing[j].StartedAt
	})

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling history day %s: %w", day, err)
	}
	if err := atomicWrite(s.dayPath(day), data); err != nil {
		return 0, fmt.Errorf("writing history day %s: %w", day, err)
	}

	s.logger.Info().Str("day", day).Int("added", added).Int("total", len(existing)).Msg("history day updated")
	return added, nil
}

// Days lists the known day keys, most recent first.
func (s *HistoryStore) Days() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing history days: %w", err)
	}

	var days []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		day := strings.TrimSuffix(name, ".json")
		if !validDayKey(day) {
			continue
		}
		days = append(days, day)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// Recent walks days from most recent to oldest and returns up to limit
// operations.
func (s *HistoryStore) Recent(limit int) ([]domain.Operation, error) {
	days, err := s.Days()
	if err != nil {
		return nil, err
	}

	var out []domain.Operation
	for _, day := range days {
		ops, err := s.LoadDay(day)
		if err != nil {
			return nil, err
		}
		out = append(out, ops...)
		if len(out) >= limit {
			break
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func validDayKey(day string) bool {
	_, err := time.Parse(constants.DayKeyLayout, day)
	return err == nil
}
