package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client *pubsub.Client
}

// noop is used when no Google Cloud project is configured.
type noop struct{}

// EventType represents the type of event/message sent via pubsub.
// It doubles as the topic name.
type EventType string

const (
	EventMatchesIngested EventType = "matches-ingested"
	EventPlayerAdded     EventType = "player-added"
)

// MatchesIngestedEvent is published after every ingestion run.
type MatchesIngestedEvent struct {
	RunID      string    `msgpack:"run_id"`
	Kind       string    `msgpack:"kind"`
	NewMatches int       `msgpack:"new_matches"`
	MatchIDs   []string  `msgpack:"match_ids"`
	Failures   int       `msgpack:"failures"`
	Cancelled  bool      `msgpack:"cancelled"`
	FinishedAt time.Time `msgpack:"finished_at"`
}

// PlayerAddedEvent is published when a player joins the roster.
type PlayerAddedEvent struct {
	RiotID string `msgpack:"riot_id"`
	PUUID  string `msgpack:"puuid"`
}
