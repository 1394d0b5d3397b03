package service

import (
	"time"

	"squad-tracker/internal/constants"
	"squad-tracker/internal/domain"
	"squad-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// PublishService merges new operations into the day-bucketed history and
// assembles the final artifact. History only ever grows; replaying the same
// operations is a no-op.
type PublishService struct {
	artifacts *repository.ArtifactStore
	history   *repository.HistoryStore
	now       func() time.Time
	logger    zerolog.Logger
}

func NewPublishService(artifacts *repository.ArtifactStore, history *repository.HistoryStore, logger zerolog.Logger) *PublishService {
	return &PublishService{
		artifacts: artifacts,
		history:   history,
		now:       time.Now,
		logger:    logger,
	}
}

// Publish persists the run's results: history days first, then the live
// artifact, atomically. Snapshots are kept in roster order.
func (p *PublishService) Publish(players []domain.ProfileSnapshot, ops []domain.Operation) error {
	byDay := groupByDay(ops)

	for day, dayOps := range byDay {
		added, err := p.history.MergeDay(day, dayOps)
		if err != nil {
			return err
		}
		if added == 0 {
			p.logger.Debug().Str("day", day).Msg("no new operations for day")
		}
	}

	days, err := p.history.Days()
	if err != nil {
		return err
	}

	recent, err := p.history.Recent(constants.RecentOperations)
	if err != nil {
		return err
	}

	artifact := &domain.Artifact{
		UpdatedAt:      p.now().UnixMilli(),
		Players:        players,
		Operations:     recent,
		AvailableDates: days,
	}
	return p.artifacts.Write(artifact)
}

// groupByDay buckets operations by the UTC calendar day of their start time.
func groupByDay(ops []domain.Operation) map[string][]domain.Operation {
	byDay := make(map[string][]domain.Operation)
	for _, op := range ops {
		day := time.Unix(op.StartedAt, 0).UTC().Format(constants.DayKeyLayout)
		byDay[day] = append(byDay[day], op)
	}
	return byDay
}
