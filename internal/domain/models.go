package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RosterEntry is one row of the roster feed: a role label plus a Riot ID in
// name#tag form. Entries are immutable for the duration of a run.
type RosterEntry struct {
	Role   string
	RiotID string
}

// Key returns the normalized identity key for this entry.
func (e RosterEntry) Key() string {
	return IdentityKey(e.RiotID)
}

// IdentityKey normalizes a Riot ID for membership tests and cache lookups:
// case-folded with all whitespace removed.
func IdentityKey(riotID string) string {
	lower := strings.ToLower(riotID)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, lower)
}

// Level is an account level that historically appears in the artifact either
// as a number or as the "--" placeholder. It marshals as a string and accepts
// both shapes when reading back old artifacts.
type Level string

const LevelUnknown Level = "--"

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Level(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = Level(strconv.FormatInt(n, 10))
	return nil
}

// ProfileSnapshot is the persisted per-identity record. Field names are the
// artifact contract consumed by the presentation layer and must stay stable.
type ProfileSnapshot struct {
	RiotID          string `json:"riotId"`
	Role            string `json:"roleRaw"`
	TrackerLink     string `json:"trackerLink"`
	Level           Level  `json:"level"`
	Card            string `json:"card"`
	CurrentRank     string `json:"currentRank"`
	CurrentRankIcon string `json:"currentRankIcon"`
	PeakRank        string `json:"peakRank"`
	PeakRankIcon    string `json:"peakRankIcon"`
	LastSeenMatchID string `json:"lastSeenMatchId,omitempty"`
	HadError        bool   `json:"apiError"`
}

// SquadMember is one roster member's line inside an operation.
type SquadMember struct {
	RiotID      string `json:"riotId"`
	Agent       string `json:"agent"`
	AgentImg    string `json:"agentImg"`
	KDA         string `json:"kda"`
	HeadshotPct int    `json:"hs"`
}

// Operation is a match in which two or more roster identities co-participated.
// Never mutated after creation.
type Operation struct {
	ID        string        `json:"id"`
	Map       string        `json:"map"`
	Mode      string        `json:"mode"`
	StartedAt int64         `json:"started_at"`
	Score     string        `json:"score"`
	Result    string        `json:"result"`
	TeamColor string        `json:"team_color"`
	Squad     []SquadMember `json:"squad"`
}

const (
	ResultWin  = "WIN"
	ResultLoss = "LOSS"
)

// Artifact is the published output, the sole contract with the presentation
// layer.
type Artifact struct {
	UpdatedAt      int64             `json:"updatedAt"`
	Players        []ProfileSnapshot `json:"players"`
	Operations     []Operation       `json:"operations"`
	AvailableDates []string          `json:"availableDates"`
}

// HeadshotPct derives a headshot percentage from shot-location counts,
// clamped to 0 when no shots landed.
func HeadshotPct(head, body, leg int) int {
	total := head + body + leg
	if total == 0 {
		return 0
	}
	return int(float64(head)/float64(total)*100 + 0.5)
}
