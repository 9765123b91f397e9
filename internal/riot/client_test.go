package riot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T, handler http.HandlerFunc) (*APIClient, *ratelimit.Mock) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	limiter := ratelimit.NewMock()
	c := newAPIClient("test-key", "americas", limiter)
	c.httpClient = server.Client()
	c.BaseURLFormat = server.URL + "/%s"
	return c, limiter
}

const matchJSON = `{
	"metadata": {"matchId": "NA1_5000", "participants": ["p1", "p2"]},
	"info": {
		"gameCreation": 1768000000000,
		"gameStartTimestamp": 1768000005000,
		"gameEndTimestamp": 1768001800000,
		"queueId": 440,
		"participants": [
			{"puuid": "p1", "teamId": 100, "win": true, "kills": 7, "deaths": 2, "assists": 11, "championId": 157, "championName": "Yasuo"},
			{"puuid": "BOT", "teamId": 100, "win": true},
			{"puuid": "p2", "teamId": 200, "win": false, "kills": 1, "deaths": 9, "assists": 3, "championId": 22}
		]
	}
}`

func TestFetchMatchDetail(t *testing.T) {
	c, limiter := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/americas/lol/match/v5/matches/NA1_5000", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, matchJSON)
	})

	m, err := c.FetchMatchDetail(context.Background(), "NA1_5000")
	require.NoError(t, err)
	assert.Equal(t, "NA1_5000", m.MatchID)
	assert.Equal(t, cache.QueueFlex, m.QueueType)
	assert.Equal(t, 440, m.QueueID)
	assert.Equal(t, time.UnixMilli(1768000005000).UTC(), m.Timestamp, "game start wins over creation")
	require.Len(t, m.Participants, 2, "bots are dropped")
	assert.Equal(t, cache.Participant{PUUID: "p1", TeamID: 100, Win: true, Kills: 7, Deaths: 2, Assists: 11, ChampionID: 157, ChampionName: "Yasuo"}, m.Participants[0])
	assert.Equal(t, 1, limiter.Acquired())
}

func TestFetchMatchDetail_TimestampFallback(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"metadata":{"matchId":"EUW1_1"},"info":{"gameCreation":1768000000000,"queueId":420,"participants":[]}}`)
	})
	m, err := c.FetchMatchDetail(context.Background(), "EUW1_1")
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1768000000000).UTC(), m.Timestamp)
	assert.Equal(t, cache.QueueSoloDuo, m.QueueType)
}

func TestFetchMatchDetail_Malformed(t *testing.T) {
	tests := map[string]string{
		"no info":      `{"metadata":{"matchId":"NA1_1"}}`,
		"no timestamp": `{"metadata":{"matchId":"NA1_1"},"info":{"queueId":420}}`,
		"wrong id":     `{"metadata":{"matchId":"NA1_2"},"info":{"gameCreation":1}}`,
		"not json":     `<html>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})
			_, err := c.FetchMatchDetail(context.Background(), "NA1_1")
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("429 with Retry-After", func(t *testing.T) {
		c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := c.FetchMatchDetail(context.Background(), "NA1_1")
		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 7*time.Second, rl.RetryAfter)
	})

	t.Run("429 without Retry-After", func(t *testing.T) {
		c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := c.FetchMatchDetail(context.Background(), "NA1_1")
		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, DefaultRetryAfter, rl.RetryAfter)
	})

	t.Run("404", func(t *testing.T) {
		c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := c.FetchMatchDetail(context.Background(), "NA1_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("403", func(t *testing.T) {
		c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
		_, err := c.FetchMatchDetail(context.Background(), "NA1_1")
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusForbidden, te.StatusCode)
	})

	t.Run("limiter cancellation prevents the request", func(t *testing.T) {
		called := false
		c, limiter := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		limiter.AcquireFunc = func(ctx context.Context, weight int) error { return context.Canceled }
		_, err := c.FetchMatchIDsPage(context.Background(), "p1", PageRequest{Count: 20})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestFetchMatchIDsPage(t *testing.T) {
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/americas/lol/match/v5/matches/by-puuid/p1/ids", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("start"))
		assert.Equal(t, "100", q.Get("count"))
		assert.Equal(t, fmt.Sprint(end.Unix()), q.Get("endTime"))
		assert.Empty(t, q.Get("startTime"))
		fmt.Fprint(w, `["NA1_3","NA1_2"]`)
	})

	ids, err := c.FetchMatchIDsPage(context.Background(), "p1", PageRequest{Start: 100, Count: 100, EndTime: end})
	require.NoError(t, err)
	assert.Equal(t, []string{"NA1_3", "NA1_2"}, ids)
}

func TestAccountByRiotID_RoutingFallback(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c, limiter := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0])
		mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/europe/riot/account/v1/accounts/by-riot-id/"):
			assert.Equal(t, "/europe/riot/account/v1/accounts/by-riot-id/Some Name/EUW", r.URL.Path)
			fmt.Fprint(w, `{"puuid":"p-eu","gameName":"Some Name","tagLine":"EUW"}`)
		case strings.HasPrefix(r.URL.Path, "/europe/lol/match/v5/"):
			fmt.Fprint(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	acc, err := c.AccountByRiotID(context.Background(), "Some Name", "EUW")
	require.NoError(t, err)
	assert.Equal(t, "p-eu", acc.PUUID)
	assert.Equal(t, "Some Name#EUW", acc.RiotID())
	assert.Equal(t, []string{"americas", "europe"}, seen)
	assert.Equal(t, 2, limiter.Acquired(), "each attempt costs a permit")

	// Match ids for that puuid go to the routing the account was found on.
	_, err = c.FetchMatchIDsPage(context.Background(), "p-eu", PageRequest{Count: 20})
	require.NoError(t, err)
	assert.Equal(t, "europe", seen[len(seen)-1])
}

func TestAccountByRiotID_NotFoundAnywhere(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.AccountByRiotID(context.Background(), "Ghost", "000")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRoutingForMatchID(t *testing.T) {
	assert.Equal(t, "americas", routingForMatchID("NA1_123", "asia"))
	assert.Equal(t, "europe", routingForMatchID("EUW1_123", "americas"))
	assert.Equal(t, "asia", routingForMatchID("KR_1", "americas"))
	assert.Equal(t, "sea", routingForMatchID("OC1_1", "americas"))
	assert.Equal(t, "americas", routingForMatchID("weird", "americas"))
}
