package constants

import "time"

const (
	// Minimum spacing between the starts of two upstream calls.
	FetchMinInterval = 1500 * time.Millisecond

	// Cooldown before retrying a rate-limited or erroring upstream call.
	FetchCooldown = 30 * time.Second

	// Retries after the initial attempt on 429/5xx responses.
	FetchMaxRetries = 1

	ExternalAPITimeout = 10 * time.Second
	RosterFetchTimeout = 15 * time.Second
)

const (
	// Competitive history page size per identity.
	MatchHistorySize = 10

	// Operations shown in the live view of the artifact.
	RecentOperations = 4
)

const (
	// Rank label used when no ranked standing is known. Matches with this
	// sentinel never count as a cache hit.
	UnrankedLabel = "Unranked"

	// Rank icons only exist above this tier id.
	MinIconTier = 2

	DefaultCard = "https://media.valorant-api.com/playercards/9fb348bc-41a0-91ad-8a3e-818035c4e561/smallart.png"

	RankIconURLFormat = "https://media.valorant-api.com/competitivetiers/03621f52-342b-cf4e-4f86-9350a49c6d04/%d/smallicon.png"

	TrackerLinkFormat = "https://tracker.gg/valorant/profile/riot/%s%%23%s/overview"
)

// Candidate regions tried in order for the history lookup. A not-found
// response advances to the next candidate.
var RegionCandidates = []string{"br", "na"}

// Day keys bucket history by the UTC date of a match's start time.
const DayKeyLayout = "2006-01-02"
