package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"squad-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ArtifactStore reads and writes the published artifact. Writes go through a
// temp file and rename so readers never observe a partial artifact.
type ArtifactStore struct {
	path   string
	logger zerolog.Logger
}

func NewArtifactStore(path string, logger zerolog.Logger) *ArtifactStore {
	return &ArtifactStore{path: path, logger: logger}
}

// LoadPrevious returns the players of the previously published artifact. Two
// legacy shapes are accepted: a bare snapshot array, and an object wrapping a
// players field. A missing or unparseable file yields an empty slice, never
// an error; the artifact schema has evolved and a cold start must work.
func (s *ArtifactStore) LoadPrevious() []domain.ProfileSnapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Info().Str("path", s.path).Msg("no previous artifact, starting cold")
		return nil
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err == nil && artifact.Players != nil {
		s.logger.Info().Int("players", len(artifact.Players)).Msg("previous artifact loaded")
		return artifact.Players
	}

	var bare []domain.ProfileSnapshot
	if err := json.Unmarshal(data, &bare); err == nil {
		s.logger.Info().Int("players", len(bare)).Msg("previous artifact loaded (legacy array shape)")
		return bare
	}

	s.logger.Warn().Str("path", s.path).Msg("previous artifact unreadable, starting cold")
	return nil
}

// Write persists the artifact atomically: marshal to a temp file alongside
// the target, then rename over it.
func (s *ArtifactStore) Write(artifact *domain.Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}

	s.logger.Info().
		Str("path", s.path).
		Int("players", len(artifact.Players)).
		Int("operations", len(artifact.Operations)).
		Msg("artifact published")
	return nil
}

// atomicWrite writes data to a suffixed temp file in the target's directory
// and renames it into place. Rename within one directory is atomic on POSIX
// filesystems.
func atomicWrite(path string, data []byte) error {
	suffix, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generating temp suffix: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), suffix))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
