package analytics

import (
	"time"

	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/timewindow"
)

// TotalRowID labels the synthesized all-players row of a daily report.
const TotalRowID = "TOTAL"

// Default thresholds.
const (
	DefaultDuoMinGames      = 3
	DefaultDuoFallbackFloor = 1
	DefaultFlexMinGames     = 3
	DefaultFlexTopN         = 5

	DefaultProfileRecentGames   = 8
	DefaultProfileChampionGames = 20
	ProfileTopChampions         = 5
)

// Queues reported per player, in display order.
var reportedQueues = []cache.QueueType{cache.QueueSoloDuo, cache.QueueFlex, cache.QueueARAM, cache.QueueOther}

// Options holds the analytics thresholds. Zero values take the defaults.
type Options struct {
	DuoMinGames      int
	DuoFallbackFloor int
	FlexMinGames     int
	FlexTopN         int
}

// Engine computes read-only reports from the cache.
type Engine struct {
	store    cache.Store
	calendar timewindow.Calculator
	opts     Options
}

// WinLoss aggregates results and kill participation over a set of games.
type WinLoss struct {
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Kills   int     `json:"kills"`
	Deaths  int     `json:"deaths"`
	Assists int     `json:"assists"`
	KDA     float64 `json:"kda"`
}

// QueueRecord is a player's results in one queue.
type QueueRecord struct {
	Queue cache.QueueType `json:"queue"`
	WinLoss
}

// PlayerDay is one row of a daily report.
type PlayerDay struct {
	RiotID string        `json:"riot_id"`
	Queues []QueueRecord `json:"queues"`
	Total  WinLoss       `json:"total"`
}

// DailyReport holds every tracked player's results for one tracking day.
type DailyReport struct {
	Day     timewindow.DayKey `json:"day"`
	Start   time.Time         `json:"start"`
	End     time.Time         `json:"end"`
	Players []PlayerDay       `json:"players"`
	Total   PlayerDay         `json:"total"`
}

// DuoStats is the record of one pair of players queued together.
type DuoStats struct {
	Players [2]string `json:"players"`
	Games   int       `json:"games"`
	Wins    int       `json:"wins"`
	WinRate float64   `json:"win_rate"`
}

// DuoReport lists duos meeting the applied game threshold.
type DuoReport struct {
	RequestedMinGames int        `json:"requested_min_games"`
	AppliedMinGames   int        `json:"applied_min_games"`
	Relaxed           bool       `json:"relaxed"`
	Duos              []DuoStats `json:"duos"`
}

// StackStats is the record of one five-player flex stack.
type StackStats struct {
	Players []string `json:"players"`
	Games   int      `json:"games"`
	Wins    int      `json:"wins"`
	Losses  int      `json:"losses"`
	WinRate float64  `json:"win_rate"`
}

// FlexReport ranks the flex stacks seen this season.
type FlexReport struct {
	DistinctStacks int          `json:"distinct_stacks"`
	MinGames       int          `json:"min_games"`
	Stacks         []StackStats `json:"stacks"`
}

// QueueCount is the number of cached games a player has in one raw queue.
type QueueCount struct {
	QueueID   int             `json:"queue_id"`
	QueueType cache.QueueType `json:"queue_type"`
	Games     int             `json:"games"`
}

// ChampionRecord is a player's Solo/Duo results on one champion.
type ChampionRecord struct {
	ChampionID int     `json:"champion_id"`
	Champion   string  `json:"champion"`
	Games      int     `json:"games"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    float64 `json:"win_rate"`
}

// PlayerProfile summarizes a player's recent form from cached matches.
type PlayerProfile struct {
	RiotID        string `json:"riot_id"`
	PUUID         string `json:"puuid"`
	CachedMatches int    `json:"cached_matches"`
	// Recent covers the newest RecentWindow games in any queue.
	RecentWindow int     `json:"recent_window"`
	Recent       WinLoss `json:"recent"`
	// Champions covers the newest ChampionWindow Solo/Duo games.
	ChampionWindow int              `json:"champion_window"`
	SoloDuoGames   int              `json:"solo_duo_games"`
	Champions      []ChampionRecord `json:"champions"`
}
