package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"squad-tracker/internal/config"
	"squad-tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

const defaultBaseURL = "https://api.henrikdev.xyz"

// ErrNotFound signals a 404-class response, which for identity lookups means
// the region guess was wrong. Region fallback happens at the call site.
var ErrNotFound = errors.New("upstream resource not found")

// StatusError is a terminal non-OK upstream status after retries were
// exhausted.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Code)
}

// HDevClient talks to the HenrikDev API. All calls are paced: consecutive
// call starts are at least FetchMinInterval apart, and rate-limit or server
// errors trigger a long cooldown followed by a bounded number of retries of
// the same request. The client is not safe for concurrent use; callers run
// requests one at a time.
type HDevClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
	clock   Clock
	pacer   *pacer
	logger  zerolog.Logger
}

func NewHDevClient(cfg *config.Config, logger zerolog.Logger) *HDevClient {
	clock := realClock{}
	return &HDevClient{
		apiKey:  cfg.HenrikAPIKey,
		baseURL: defaultBaseURL,
		client: &fasthttp.Client{
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		clock:  clock,
		pacer:  newPacer(clock, constants.FetchMinInterval),
		logger: logger,
	}
}

// get issues a single paced GET. 429 and 5xx responses are retried after a
// cooldown up to FetchMaxRetries times; the last status and body are returned
// rather than an error so callers can interpret the final response. Network
// faults propagate, with the pacing budget already consumed.
func (c *HDevClient) get(ctx context.Context, requestURL string) (int, []byte, error) {
	backoff := retry.WithMaxRetries(constants.FetchMaxRetries, retry.NewConstant(constants.FetchCooldown))

	for {
		c.pacer.waitTurn()

		status, body, err := c.do(ctx, requestURL)
		if err != nil {
			return 0, nil, err
		}
		if !retryableStatus(status) {
			return status, body, nil
		}

		delay, stop := backoff.Next()
		if stop {
			c.logger.Warn().Int("status", status).Str("url", requestURL).Msg("retries exhausted, returning last response")
			return status, body, nil
		}

		c.logger.Warn().
			Int("status", status).
			Dur("cooldown", delay).
			Str("url", requestURL).
			Msg("upstream overloaded, cooling down before retry")
		c.clock.Sleep(delay)
	}
}

func (c *HDevClient) do(ctx context.Context, requestURL string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return 0, nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return 0, nil, err
		}
	}

	// fasthttp reuses response buffers after release.
	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

func retryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= 500
}

func doRequest[T any](ctx context.Context, c *HDevClient, requestURL string) (*T, error) {
	status, body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	if status == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != fasthttp.StatusOK {
		return nil, &StatusError{Code: status}
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding upstream response: %w", err)
	}
	return &result, nil
}

func (c *HDevClient) GetAccount(ctx context.Context, name, tag string) (*AccountResponse, error) {
	u := fmt.Sprintf("%s/valorant/v1/account/%s/%s", c.baseURL, url.PathEscape(name), url.PathEscape(tag))
	return doRequest[AccountResponse](ctx, c, u)
}

func (c *HDevClient) GetMMR(ctx context.Context, region, name, tag string) (*MMRResponse, error) {
	u := fmt.Sprintf("%s/valorant/v2/mmr/%s/%s/%s", c.baseURL, region, url.PathEscape(name), url.PathEscape(tag))
	return doRequest[MMRResponse](ctx, c, u)
}

func (c *HDevClient) GetMatches(ctx context.Context, region, name, tag string) (*MatchesResponse, error) {
	u := fmt.Sprintf("%s/valorant/v3/matches/%s/%s/%s?mode=competitive&size=%d",
		c.baseURL, region, url.PathEscape(name), url.PathEscape(tag), constants.MatchHistorySize)
	return doRequest[MatchesResponse](ctx, c, u)
}

type AccountResponse struct {
	Status int         `json:"status"`
	Data   AccountData `json:"data"`
}

type AccountData struct {
	Puuid        string `json:"puuid"`
	Region       string `json:"region"`
	AccountLevel int    `json:"account_level"`
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Card         struct {
		Small string `json:"small"`
	} `json:"card"`
}

type MMRResponse struct {
	Status int     `json:"status"`
	Data   MMRData `json:"data"`
}

type MMRData struct {
	CurrentData *MMRCurrentData `json:"current_data"`
	HighestRank *MMRHighestRank `json:"highest_rank"`
}

type MMRCurrentData struct {
	CurrentTier        int    `json:"currenttier"`
	CurrentTierPatched string `json:"currenttierpatched"`
	Images             struct {
		Small string `json:"small"`
	} `json:"images"`
}

type MMRHighestRank struct {
	Tier        int    `json:"tier"`
	PatchedTier string `json:"patched_tier"`
}

type MatchesResponse struct {
	Status int      `json:"status"`
	Data   []*Match `json:"data"`
}

// Match is one resolved v3 match. Players is nil when the upstream payload is
// partially failed; such matches are unusable for both fingerprinting and
// synergy detection.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Players  []MatchPlayer `json:"players"`
	Teams    *MatchTeams   `json:"teams"`
}

type MatchMetadata struct {
	MatchID   string `json:"matchid"`
	Map       string `json:"map"`
	Mode      string `json:"mode"`
	GameStart int64  `json:"game_start"`
}

type MatchPlayer struct {
	Name               string `json:"name"`
	Tag                string `json:"tag"`
	Team               string `json:"team"`
	Character          string `json:"character"`
	CurrentTier        int    `json:"currenttier"`
	CurrentTierPatched string `json:"currenttier_patched"`
	Assets             struct {
		Agent struct {
			Small string `json:"small"`
		} `json:"agent"`
	} `json:"assets"`
	Stats struct {
		Kills     int `json:"kills"`
		Deaths    int `json:"deaths"`
		Assists   int `json:"assists"`
		Headshots int `json:"headshots"`
		Bodyshots int `json:"bodyshots"`
		Legshots  int `json:"legshots"`
	} `json:"stats"`
}

type MatchTeams struct {
	Red  *TeamStats `json:"red"`
	Blue *TeamStats `json:"blue"`
}

type TeamStats struct {
	HasWon    bool `json:"has_won"`
	RoundsWon int  `json:"rounds_won"`
}

// RiotID reconstructs the player's full identity in name#tag form.
func (p MatchPlayer) RiotID() string {
	return p.Name + "#" + p.Tag
}

// Side returns the team stats for a team id ("Red"/"Blue"), or nil when team
// data is absent from the payload.
func (t *MatchTeams) Side(teamID string) *TeamStats {
	if t == nil {
		return nil
	}
	switch teamID {
	case "Red", "red":
		return t.Red
	case "Blue", "blue":
		return t.Blue
	}
	return nil
}
