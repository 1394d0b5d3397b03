package cache

import "squad-tracker/internal/domain"

// SnapshotCache indexes the previous run's published snapshots by normalized
// identity key, seeding the incremental-update decision for each identity.
type SnapshotCache struct {
	byKey map[string]domain.ProfileSnapshot
}

// NewSnapshotCache builds the index from a prior artifact's players. When two
// snapshots normalize to the same key the last one wins.
func NewSnapshotCache(prior []domain.ProfileSnapshot) *SnapshotCache {
	byKey := make(map[string]domain.ProfileSnapshot, len(prior))
	for _, snap := range prior {
		byKey[domain.IdentityKey(snap.RiotID)] = snap
	}
	return &SnapshotCache{byKey: byKey}
}

func (c *SnapshotCache) Lookup(riotID string) (domain.ProfileSnapshot, bool) {
	snap, ok := c.byKey[domain.IdentityKey(riotID)]
	return snap, ok
}

func (c *SnapshotCache) Len() int {
	return len(c.byKey)
}
