package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"squad-tracker/internal/api"
	"squad-tracker/internal/cache"
	"squad-tracker/internal/constants"
	"squad-tracker/internal/domain"
	"squad-tracker/internal/roster"

	"github.com/rs/zerolog"
)

// HenrikAPI is the upstream surface the synchronizer needs. *api.HDevClient
// satisfies it; tests substitute a fake.
type HenrikAPI interface {
	GetAccount(ctx context.Context, name, tag string) (*api.AccountResponse, error)
	GetMMR(ctx context.Context, region, name, tag string) (*api.MMRResponse, error)
	GetMatches(ctx context.Context, region, name, tag string) (*api.MatchesResponse, error)
}

// SyncService refreshes one profile snapshot per roster identity. For each
// identity it fetches match history, decides via the last-seen-match
// fingerprint whether the prior snapshot is still current, and only then
// spends the account and ranked-standing calls. Every participant-bearing
// match seen along the way lands in the shared match cache regardless of
// which path was taken.
type SyncService struct {
	hdev   HenrikAPI
	logger zerolog.Logger
}

func NewSyncService(hdev HenrikAPI, logger zerolog.Logger) *SyncService {
	return &SyncService{hdev: hdev, logger: logger}
}

// SyncAll processes roster entries strictly in feed order. One identity's
// failure never aborts the run; it falls back to the prior snapshot or an
// error-flagged placeholder.
func (s *SyncService) SyncAll(ctx context.Context, r *roster.Roster, prior *cache.SnapshotCache, matches *cache.MatchCache) []domain.ProfileSnapshot {
	snapshots := make([]domain.ProfileSnapshot, 0, len(r.Entries))
	for i, entry := range r.Entries {
		s.logger.Info().
			Int("index", i+1).
			Int("total", len(r.Entries)).
			Str("riot_id", entry.RiotID).
			Msg("synchronizing identity")
		snapshots = append(snapshots, s.syncOne(ctx, entry, prior, matches))
	}
	return snapshots
}

func (s *SyncService) syncOne(ctx context.Context, entry domain.RosterEntry, prior *cache.SnapshotCache, matches *cache.MatchCache) domain.ProfileSnapshot {
	name, tag := splitRiotID(entry.RiotID)
	prev, hasPrev := prior.Lookup(entry.RiotID)

	// A prior error-flagged snapshot still gets the history call; a changed
	// fingerprint is the only signal that unblocks it.
	history, region, err := s.fetchHistory(ctx, name, tag)
	if err != nil {
		return s.recover(entry, prev, hasPrev, err)
	}

	s.cacheMatches(history, matches)
	fingerprint := firstUsableMatch(history.Data)

	if hasPrev && fingerprint != nil &&
		prev.LastSeenMatchID == fingerprint.Metadata.MatchID &&
		prev.CurrentRank != "" && prev.CurrentRank != constants.UnrankedLabel {
		s.logger.Info().
			Str("riot_id", entry.RiotID).
			Str("match_id", fingerprint.Metadata.MatchID).
			Msg("fingerprint unchanged, reusing prior snapshot")
		out := prev
		out.Role = entry.Role // roles can change between runs even when rank does not
		return out
	}

	snap := newSnapshot(entry, name, tag)
	if fingerprint != nil {
		snap.LastSeenMatchID = fingerprint.Metadata.MatchID
	}

	region, err = s.fillAccount(ctx, &snap, name, tag, region)
	if err != nil {
		return s.recover(entry, prev, hasPrev, err)
	}

	if err := s.fillRank(ctx, &snap, region, name, tag); err != nil {
		return s.recover(entry, prev, hasPrev, err)
	}

	if snap.CurrentRank == constants.UnrankedLabel && fingerprint != nil {
		s.rankFromMatch(&snap, fingerprint, name, tag)
	}

	s.logger.Info().
		Str("riot_id", entry.RiotID).
		Str("rank", snap.CurrentRank).
		Str("region", region).
		Msg("snapshot refreshed")
	return snap
}

// fetchHistory tries the candidate regions in order; a not-found response
// advances to the next candidate, any other failure surfaces immediately.
func (s *SyncService) fetchHistory(ctx context.Context, name, tag string) (*api.MatchesResponse, string, error) {
	var lastErr error
	for _, region := range constants.RegionCandidates {
		resp, err := s.hdev.GetMatches(ctx, region, name, tag)
		if errors.Is(err, api.ErrNotFound) {
			s.logger.Debug().Str("region", region).Str("name", name).Msg("identity not found in region")
			lastErr = err
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return resp, region, nil
	}
	return nil, "", fmt.Errorf("identity not found in any candidate region: %w", lastErr)
}

// cacheMatches inserts every match with a resolvable participant list into
// the shared cache. Malformed payloads are excluded entirely.
func (s *SyncService) cacheMatches(history *api.MatchesResponse, matches *cache.MatchCache) {
	for _, m := range history.Data {
		if m == nil {
			continue
		}
		if m.Players == nil {
			s.logger.Warn().Str("match_id", m.Metadata.MatchID).Msg("match payload has no participant list, skipping")
			continue
		}
		matches.Put(m.Metadata.MatchID, m)
	}
}

// fillAccount resolves level, card art and the authoritative region. A
// not-found or error status leaves the placeholders in place; the region
// assumption stands in that case.
func (s *SyncService) fillAccount(ctx context.Context, snap *domain.ProfileSnapshot, name, tag, region string) (string, error) {
	acc, err := s.hdev.GetAccount(ctx, name, tag)
	if err != nil {
		if upstreamStatus(err) {
			s.logger.Warn().Err(err).Str("name", name).Msg("account lookup failed, keeping placeholders")
			return region, nil
		}
		return region, err
	}

	snap.Level = domain.Level(fmt.Sprintf("%d", acc.Data.AccountLevel))
	if acc.Data.Card.Small != "" {
		snap.Card = acc.Data.Card.Small
	}
	if acc.Data.Region != "" {
		region = acc.Data.Region
	}
	return region, nil
}

// fillRank resolves current and peak ranked standing. Like the account call,
// upstream status failures degrade to the unranked sentinel instead of
// failing the identity.
func (s *SyncService) fillRank(ctx context.Context, snap *domain.ProfileSnapshot, region, name, tag string) error {
	mmr, err := s.hdev.GetMMR(ctx, region, name, tag)
	if err != nil {
		if upstreamStatus(err) {
			s.logger.Warn().Err(err).Str("name", name).Str("region", region).Msg("ranked lookup failed, falling back")
			return nil
		}
		return err
	}

	if cur := mmr.Data.CurrentData; cur != nil && cur.CurrentTierPatched != "" {
		snap.CurrentRank = cur.CurrentTierPatched
		snap.CurrentRankIcon = cur.Images.Small
	}
	if peak := mmr.Data.HighestRank; peak != nil && peak.PatchedTier != "" {
		snap.PeakRank = peak.PatchedTier
		if peak.Tier > constants.MinIconTier {
			snap.PeakRankIcon = fmt.Sprintf(constants.RankIconURLFormat, peak.Tier)
		}
	}
	return nil
}

// rankFromMatch takes a fallback rank reading from the identity's own entry
// in the fingerprint match.
func (s *SyncService) rankFromMatch(snap *domain.ProfileSnapshot, match *api.Match, name, tag string) {
	for _, p := range match.Players {
		if !strings.EqualFold(p.Name, name) || !strings.EqualFold(p.Tag, tag) {
			continue
		}
		if p.CurrentTierPatched == "" {
			return
		}
		snap.CurrentRank = p.CurrentTierPatched
		if p.CurrentTier > constants.MinIconTier {
			snap.CurrentRankIcon = fmt.Sprintf(constants.RankIconURLFormat, p.CurrentTier)
		}
		s.logger.Info().Str("riot_id", snap.RiotID).Str("rank", snap.CurrentRank).Msg("rank recovered from match history")
		return
	}
}

// recover falls back to the last known snapshot, flagged as originating from
// an error state, or to an empty error-flagged one when no prior exists.
func (s *SyncService) recover(entry domain.RosterEntry, prev domain.ProfileSnapshot, hasPrev bool, err error) domain.ProfileSnapshot {
	s.logger.Error().Err(err).Str("riot_id", entry.RiotID).Bool("has_prior", hasPrev).Msg("identity sync failed")

	if hasPrev {
		out := prev
		out.Role = entry.Role
		out.HadError = true
		return out
	}

	name, tag := splitRiotID(entry.RiotID)
	snap := newSnapshot(entry, name, tag)
	snap.HadError = true
	return snap
}

func newSnapshot(entry domain.RosterEntry, name, tag string) domain.ProfileSnapshot {
	return domain.ProfileSnapshot{
		RiotID:      entry.RiotID,
		Role:        entry.Role,
		TrackerLink: fmt.Sprintf(constants.TrackerLinkFormat, url.PathEscape(name), url.PathEscape(tag)),
		Level:       domain.LevelUnknown,
		Card:        constants.DefaultCard,
		CurrentRank: constants.UnrankedLabel,
		PeakRank:    constants.UnrankedLabel,
	}
}

func splitRiotID(riotID string) (string, string) {
	name, tag, _ := strings.Cut(riotID, "#")
	return strings.TrimSpace(name), strings.TrimSpace(tag)
}

// firstUsableMatch picks the most recent history match with a resolvable
// participant list as the freshness fingerprint. Broken payloads must not be
// treated as the latest match.
func firstUsableMatch(matches []*api.Match) *api.Match {
	for _, m := range matches {
		if m != nil && len(m.Players) > 0 {
			return m
		}
	}
	return nil
}

// upstreamStatus reports whether err is a terminal upstream status rather
// than a transport fault. Status failures degrade a single field; transport
// faults fail the identity over to its prior snapshot.
func upstreamStatus(err error) bool {
	var statusErr *api.StatusError
	return errors.Is(err, api.ErrNotFound) || errors.As(err, &statusErr)
}
