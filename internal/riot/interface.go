package riot

import (
	"context"

	"github.com/mauv0809/league-ledger/internal/cache"
)

// Client defines the upstream calls used by ingestion. Every call is gated by
// the shared rate limiter. Implementations return *RateLimitedError, ErrNotFound
// or *TransportError on failure.
type Client interface {
	AccountByRiotID(ctx context.Context, gameName, tagLine string) (Account, error)
	FetchMatchIDsPage(ctx context.Context, puuid string, page PageRequest) ([]string, error)
	FetchMatchDetail(ctx context.Context, matchID string) (cache.MatchRecord, error)
}
