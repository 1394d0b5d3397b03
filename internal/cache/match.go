package cache

import "squad-tracker/internal/api"

// MatchCache holds fully-resolved match payloads for a single run, keyed by
// match id. It is the structure that turns O(identities x history) API cost
// into O(unique matches): once any identity's history resolves a match, every
// other identity in it reuses the same record.
//
// Keys are write-once: the first writer wins and later puts are ignored. The
// pipeline is single-threaded, so no locking is needed.
type MatchCache struct {
	matches map[string]*api.Match
	order   []string
}

func NewMatchCache() *MatchCache {
	return &MatchCache{matches: make(map[string]*api.Match)}
}

func (c *MatchCache) Has(matchID string) bool {
	_, ok := c.matches[matchID]
	return ok
}

func (c *MatchCache) Get(matchID string) (*api.Match, bool) {
	m, ok := c.matches[matchID]
	return m, ok
}

// Put stores a match under its id unless one is already present. Returns true
// when the match was inserted.
func (c *MatchCache) Put(matchID string, match *api.Match) bool {
	if _, ok := c.matches[matchID]; ok {
		return false
	}
	c.matches[matchID] = match
	c.order = append(c.order, matchID)
	return true
}

// All returns the cached matches in insertion order.
func (c *MatchCache) All() []*api.Match {
	out := make([]*api.Match, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.matches[id])
	}
	return out
}

func (c *MatchCache) Len() int {
	return len(c.matches)
}
