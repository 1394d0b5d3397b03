package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"squad-tracker/internal/constants"
	"squad-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// ErrSchema means the feed could not be parsed into roster entries: a
// required column is missing or there are no data rows. This is fatal for the
// run; publishing an empty roster would be worse than failing loudly.
var ErrSchema = errors.New("roster schema error")

// Roster is the parsed feed: entries in feed order plus the normalized
// identity-key set used for squad membership tests.
type Roster struct {
	Entries []domain.RosterEntry
	Keys    map[string]struct{}
}

func (r *Roster) Has(identityKey string) bool {
	_, ok := r.Keys[identityKey]
	return ok
}

// columns holds the resolved positions of the role and identity columns.
type columns struct {
	role int
	riot int
}

// The feed's exact header names are not contractually fixed, so columns are
// located by case-insensitive substring match.
var (
	roleFragments = []string{"role", "fun"}
	riotFragments = []string{"riot", "identity"}
)

// resolveColumns maps a header row to column indices, independently of any
// network or file I/O.
func resolveColumns(header []string) (columns, error) {
	cols := columns{role: -1, riot: -1}
	for i, h := range header {
		lower := strings.ToLower(h)
		if cols.role < 0 && containsAny(lower, roleFragments) {
			cols.role = i
		}
		if cols.riot < 0 && containsAny(lower, riotFragments) {
			cols.riot = i
		}
	}
	if cols.role < 0 {
		return cols, fmt.Errorf("%w: no role column in header %v", ErrSchema, header)
	}
	if cols.riot < 0 {
		return cols, fmt.Errorf("%w: no identity column in header %v", ErrSchema, header)
	}
	return cols, nil
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// Parse reads the tabular feed payload. Rows missing a role or identity, or
// whose identity lacks the name#tag separator, are skipped; partial rosters
// are expected. Zero usable header or data rows is a schema error.
func Parse(payload []byte) (*Roster, error) {
	reader := csv.NewReader(strings.NewReader(string(payload)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: feed has no data rows", ErrSchema)
	}

	cols, err := resolveColumns(records[0])
	if err != nil {
		return nil, err
	}

	roster := &Roster{Keys: make(map[string]struct{})}
	for _, row := range records[1:] {
		if cols.role >= len(row) || cols.riot >= len(row) {
			continue
		}
		role := strings.TrimSpace(row[cols.role])
		riotID := strings.TrimSpace(row[cols.riot])
		if role == "" || riotID == "" || !strings.Contains(riotID, "#") {
			continue
		}
		entry := domain.RosterEntry{Role: role, RiotID: riotID}
		roster.Entries = append(roster.Entries, entry)
		roster.Keys[entry.Key()] = struct{}{}
	}

	return roster, nil
}

// Loader fetches and parses the roster feed.
type Loader struct {
	client *fasthttp.Client
	url    string
	logger zerolog.Logger
}

func NewLoader(url string, logger zerolog.Logger) *Loader {
	return &Loader{
		client: &fasthttp.Client{
			ReadTimeout:         constants.RosterFetchTimeout,
			WriteTimeout:        constants.RosterFetchTimeout,
			MaxIdleConnDuration: time.Minute,
			MaxResponseBodySize: 8 << 20,
		},
		url:    url,
		logger: logger,
	}
}

func (l *Loader) Load() (*Roster, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(l.url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := l.client.DoRedirects(req, resp, 5); err != nil {
		return nil, fmt.Errorf("fetching roster feed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetching roster feed: status %d", resp.StatusCode())
	}

	roster, err := Parse(resp.Body())
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Int("entries", len(roster.Entries)).
		Int("identities", len(roster.Keys)).
		Msg("roster loaded")

	return roster, nil
}
