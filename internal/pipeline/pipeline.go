package pipeline

import (
	"context"
	"fmt"
	"time"

	"squad-tracker/internal/cache"
	"squad-tracker/internal/repository"
	"squad-tracker/internal/roster"
	"squad-tracker/internal/service"

	"github.com/rs/zerolog"
)

// RosterSource yields the current roster. *roster.Loader satisfies it.
type RosterSource interface {
	Load() (*roster.Roster, error)
}

// Pipeline runs one full synchronization: roster -> per-identity sync ->
// synergy derivation -> publication. Execution is strictly sequential so the
// upstream rate ceiling holds across the whole run.
type Pipeline struct {
	loader    RosterSource
	artifacts *repository.ArtifactStore
	syncSvc   *service.SyncService
	synergy   *service.SynergyService
	publisher *service.PublishService
	logger    zerolog.Logger
}

func New(
	loader RosterSource,
	artifacts *repository.ArtifactStore,
	syncSvc *service.SyncService,
	synergy *service.SynergyService,
	publisher *service.PublishService,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		loader:    loader,
		artifacts: artifacts,
		syncSvc:   syncSvc,
		synergy:   synergy,
		publisher: publisher,
		logger:    logger,
	}
}

// Run executes one synchronization pass. An unreadable feed or an empty
// roster aborts before anything is written; per-identity failures are
// embedded in the artifact instead.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	r, err := p.loader.Load()
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	if len(r.Entries) == 0 {
		return fmt.Errorf("%w: no usable roster entries", roster.ErrSchema)
	}

	prior := cache.NewSnapshotCache(p.artifacts.LoadPrevious())
	matches := cache.NewMatchCache()

	players := p.syncSvc.SyncAll(ctx, r, prior, matches)
	ops := p.synergy.Operations(matches, r)

	if err := p.publisher.Publish(players, ops); err != nil {
		return fmt.Errorf("publishing artifact: %w", err)
	}

	p.logger.Info().
		Int("players", len(players)).
		Int("matches", matches.Len()).
		Int("operations", len(ops)).
		Dur("elapsed", time.Since(start)).
		Msg("synchronization complete")
	return nil
}
