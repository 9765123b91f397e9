package riot

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mauv0809/league-ledger/internal/ratelimit"
)

const (
	defaultBaseURLFormat = "https://%s.api.riotgames.com"
	defaultTimeout       = 10 * time.Second

	// DefaultRetryAfter is used when a 429 carries no usable Retry-After header.
	DefaultRetryAfter = 2 * time.Second
)

// Routing regions tried for account lookups, in order.
var accountRoutings = []string{"americas", "europe", "asia"}

var (
	// ErrNotFound is returned when the upstream resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformedPayload is wrapped in a TransportError when a response cannot be normalized.
	ErrMalformedPayload = errors.New("malformed payload")
)

// RateLimitedError signals an upstream 429. The caller must back off for RetryAfter.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// TransportError is any other failed exchange: network errors, non-OK statuses
// and payloads that do not normalize.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Account is a resolved Riot account.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// RiotID returns the canonical Name#TAG form.
func (a Account) RiotID() string {
	return a.GameName + "#" + a.TagLine
}

// PageRequest selects one page of a player's match ids, newest first.
// Zero times are omitted from the request.
type PageRequest struct {
	Start     int
	Count     int
	StartTime time.Time
	EndTime   time.Time
}

// APIClient talks to the Riot Account-V1 and Match-V5 APIs.
type APIClient struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	apiKey     string
	routing    string

	// BaseURLFormat receives the routing region, e.g. "https://%s.api.riotgames.com".
	BaseURLFormat string

	mu           sync.RWMutex
	puuidRouting map[string]string
}

// matchResponse is the subset of a Match-V5 payload the cache keeps.
type matchResponse struct {
	Metadata struct {
		MatchID string `json:"matchId"`
	} `json:"metadata"`
	Info *struct {
		GameCreation       int64 `json:"gameCreation"`
		GameStartTimestamp int64 `json:"gameStartTimestamp"`
		GameEndTimestamp   int64 `json:"gameEndTimestamp"`
		QueueID            int   `json:"queueId"`
		Participants       []struct {
			PUUID        string `json:"puuid"`
			TeamID       int    `json:"teamId"`
			Win          bool   `json:"win"`
			Kills        int    `json:"kills"`
			Deaths       int    `json:"deaths"`
			Assists      int    `json:"assists"`
			ChampionID   int    `json:"championId"`
			ChampionName string `json:"championName"`
		} `json:"participants"`
	} `json:"info"`
}
