package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
)

// NewClient creates a Riot API client. routing is the default regional host
// ("americas", "europe", "asia" or "sea"); every request first acquires a
// permit from limiter.
func NewClient(apiKey, routing string, limiter ratelimit.Limiter) Client {
	return newAPIClient(apiKey, routing, limiter)
}

func newAPIClient(apiKey, routing string, limiter ratelimit.Limiter) *APIClient {
	if routing == "" {
		routing = accountRoutings[0]
	}
	return &APIClient{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		limiter:       limiter,
		apiKey:        apiKey,
		routing:       routing,
		BaseURLFormat: defaultBaseURLFormat,
		puuidRouting:  make(map[string]string),
	}
}

// Ensure APIClient implements the Client interface.
var _ Client = (*APIClient)(nil)

// AccountByRiotID resolves a Riot ID, trying the configured routing first and
// then the remaining regions when the account is not found there.
func (c *APIClient) AccountByRiotID(ctx context.Context, gameName, tagLine string) (Account, error) {
	var lastErr error = ErrNotFound
	for _, routing := range c.routingsFor(c.routing) {
		path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
			url.PathEscape(gameName), url.PathEscape(tagLine))

		var acc Account
		err := c.get(ctx, routing, path, &acc)
		if errors.Is(err, ErrNotFound) {
			lastErr = err
			continue
		}
		if err != nil {
			return Account{}, err
		}
		if acc.PUUID == "" {
			return Account{}, &TransportError{URL: path, Err: fmt.Errorf("%w: account without puuid", ErrMalformedPayload)}
		}
		c.rememberRouting(acc.PUUID, routing)
		log.Debug("Resolved Riot account", "riot_id", acc.RiotID(), "routing", routing)
		return acc, nil
	}
	return Account{}, lastErr
}

// FetchMatchIDsPage returns one page of match ids, newest first.
func (c *APIClient) FetchMatchIDsPage(ctx context.Context, puuid string, page PageRequest) ([]string, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(page.Start))
	if page.Count > 0 {
		q.Set("count", strconv.Itoa(page.Count))
	}
	if !page.StartTime.IsZero() {
		q.Set("startTime", strconv.FormatInt(page.StartTime.Unix(), 10))
	}
	if !page.EndTime.IsZero() {
		q.Set("endTime", strconv.FormatInt(page.EndTime.Unix(), 10))
	}
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?%s", url.PathEscape(puuid), q.Encode())

	var ids []string
	if err := c.get(ctx, c.routingForPUUID(puuid), path, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchMatchDetail fetches a match and normalizes it into a cache record.
func (c *APIClient) FetchMatchDetail(ctx context.Context, matchID string) (cache.MatchRecord, error) {
	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)

	var resp matchResponse
	if err := c.get(ctx, routingForMatchID(matchID, c.routing), path, &resp); err != nil {
		return cache.MatchRecord{}, err
	}
	rec, err := normalizeMatch(matchID, resp)
	if err != nil {
		return cache.MatchRecord{}, &TransportError{URL: path, Err: err}
	}
	return rec, nil
}

func normalizeMatch(matchID string, resp matchResponse) (cache.MatchRecord, error) {
	if resp.Info == nil {
		return cache.MatchRecord{}, fmt.Errorf("%w: match %s has no info", ErrMalformedPayload, matchID)
	}
	if resp.Metadata.MatchID != "" && resp.Metadata.MatchID != matchID {
		return cache.MatchRecord{}, fmt.Errorf("%w: asked for %s, got %s", ErrMalformedPayload, matchID, resp.Metadata.MatchID)
	}

	var ms int64
	for _, candidate := range []int64{resp.Info.GameStartTimestamp, resp.Info.GameCreation, resp.Info.GameEndTimestamp} {
		if candidate > 0 {
			ms = candidate
			break
		}
	}
	if ms == 0 {
		return cache.MatchRecord{}, fmt.Errorf("%w: match %s has no timestamp", ErrMalformedPayload, matchID)
	}

	rec := cache.MatchRecord{
		MatchID:   matchID,
		QueueID:   resp.Info.QueueID,
		QueueType: cache.QueueTypeFor(resp.Info.QueueID),
		Timestamp: time.UnixMilli(ms).UTC(),
	}
	for _, p := range resp.Info.Participants {
		if p.PUUID == "" || p.PUUID == "BOT" {
			continue
		}
		rec.Participants = append(rec.Participants, cache.Participant{
			PUUID:        p.PUUID,
			TeamID:       p.TeamID,
			Win:          p.Win,
			Kills:        p.Kills,
			Deaths:       p.Deaths,
			Assists:      p.Assists,
			ChampionID:   p.ChampionID,
			ChampionName: p.ChampionName,
		})
	}
	return rec, nil
}

// get performs one rate-limited GET and decodes a JSON body into out.
func (c *APIClient) get(ctx context.Context, routing, path string, out any) error {
	if err := c.limiter.Acquire(ctx, 1); err != nil {
		return err
	}

	u := fmt.Sprintf(c.BaseURLFormat, routing) + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{URL: path, Err: err}
	}
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	log.Debug("Requesting Riot API", "routing", routing, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{URL: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		log.Warn("Riot API rate limited the request", "path", path, "retry_after", retryAfter)
		return &RateLimitedError{RetryAfter: retryAfter}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error("Received non-OK HTTP status from Riot API", "status", resp.StatusCode, "path", path, "body", string(body))
		return &TransportError{URL: path, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{URL: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %s", ErrMalformedPayload, err)}
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func (c *APIClient) rememberRouting(puuid, routing string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puuidRouting[puuid] = routing
}

func (c *APIClient) routingForPUUID(puuid string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.puuidRouting[puuid]; ok {
		return r
	}
	return c.routing
}

// routingsFor returns preferred followed by the other account routings.
func (c *APIClient) routingsFor(preferred string) []string {
	out := []string{preferred}
	for _, r := range accountRoutings {
		if r != preferred {
			out = append(out, r)
		}
	}
	return out
}

// routingForMatchID derives the regional host from the platform prefix of a match id.
func routingForMatchID(matchID, fallback string) string {
	platform, _, ok := strings.Cut(matchID, "_")
	if !ok {
		return fallback
	}
	switch strings.ToUpper(platform) {
	case "NA1", "BR1", "LA1", "LA2":
		return "americas"
	case "EUW1", "EUN1", "TR1", "RU", "ME1":
		return "europe"
	case "KR", "JP1":
		return "asia"
	case "OC1", "PH2", "SG2", "TH2", "TW2", "VN2":
		return "sea"
	default:
		return fallback
	}
}
