package service

import (
	"fmt"
	"sort"

	"squad-tracker/internal/api"
	"squad-tracker/internal/cache"
	"squad-tracker/internal/domain"
	"squad-tracker/internal/roster"

	"github.com/rs/zerolog"
)

const noScore = "N/A"

// SynergyService scans the shared match cache for matches in which two or
// more roster identities co-participated and promotes each to an operation
// record.
type SynergyService struct {
	logger zerolog.Logger
}

func NewSynergyService(logger zerolog.Logger) *SynergyService {
	return &SynergyService{logger: logger}
}

// Operations derives operation records from every cached match, ordered by
// match start time descending.
func (s *SynergyService) Operations(matches *cache.MatchCache, r *roster.Roster) []domain.Operation {
	var ops []domain.Operation
	for _, match := range matches.All() {
		if match.Players == nil {
			// Guards against partially-failed payloads; the cache should not
			// contain these, but the exclusion rule is load-bearing.
			continue
		}

		squad := squadMembers(match, r)
		if len(squad) < 2 {
			continue
		}

		op := buildOperation(match, squad)
		s.logger.Info().
			Str("match_id", op.ID).
			Str("map", op.Map).
			Str("result", op.Result).
			Int("squad_size", len(op.Squad)).
			Msg("operation confirmed")
		ops = append(ops, op)
	}

	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].StartedAt > ops[j].StartedAt
	})
	return ops
}

func squadMembers(match *api.Match, r *roster.Roster) []api.MatchPlayer {
	var squad []api.MatchPlayer
	for _, p := range match.Players {
		if r.Has(domain.IdentityKey(p.RiotID())) {
			squad = append(squad, p)
		}
	}
	return squad
}

// buildOperation computes the outcome from the side of the first squad member
// in upstream order. That tie-break is arbitrary but deliberate: when team
// data disagrees there is no better signal, and changing it would change
// published history.
func buildOperation(match *api.Match, squad []api.MatchPlayer) domain.Operation {
	teamID := squad[0].Team

	result := domain.ResultLoss
	score := noScore
	if side := match.Teams.Side(teamID); side != nil {
		if side.HasWon {
			result = domain.ResultWin
		}
	}
	if match.Teams != nil && match.Teams.Blue != nil && match.Teams.Red != nil {
		score = fmt.Sprintf("%d-%d", match.Teams.Blue.RoundsWon, match.Teams.Red.RoundsWon)
	}

	members := make([]domain.SquadMember, 0, len(squad))
	for _, m := range squad {
		members = append(members, domain.SquadMember{
			RiotID:   m.RiotID(),
			Agent:    m.Character,
			AgentImg: m.Assets.Agent.Small,
			KDA:      fmt.Sprintf("%d/%d/%d", m.Stats.Kills, m.Stats.Deaths, m.Stats.Assists),
			HeadshotPct: domain.HeadshotPct(
				m.Stats.Headshots, m.Stats.Bodyshots, m.Stats.Legshots),
		})
	}

	return domain.Operation{
		ID:        match.Metadata.MatchID,
		Map:       match.Metadata.Map,
		Mode:      match.Metadata.Mode,
		StartedAt: match.Metadata.GameStart,
		Score:     score,
		Result:    result,
		TeamColor: teamID,
		Squad:     members,
	}
}
