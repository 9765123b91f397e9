package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/cache/filestore"
	"github.com/mauv0809/league-ledger/internal/cache/sqlstore"
	"github.com/mauv0809/league-ledger/internal/database"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"CACHE_BACKEND":     "file",
		"CACHE_PATH":        "league_cache.json",
		"CACHE_FORMAT":      "json",
		"SEASON_START_DATE": "2026-01-08",
		"SEED_PLAYERS":      "8",
		"SEED_MATCHES":      "2000",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

func openBackend(cfg map[string]string) (cache.Backend, func(), error) {
	if cfg["CACHE_BACKEND"] == "sqlite" {
		db, teardown, err := database.InitDB(cfg["CACHE_PATH"])
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.New(db), teardown, nil
	}
	format, err := filestore.ParseFormat(cfg["CACHE_FORMAT"])
	if err != nil {
		return nil, nil, err
	}
	return filestore.New(cfg["CACHE_PATH"], format), func() {}, nil
}

func atoi(cfg map[string]string, key string) int {
	n, err := strconv.Atoi(cfg[key])
	if err != nil || n <= 0 {
		log.Fatalf("Error: %s must be a positive integer, got %q", key, cfg[key])
	}
	return n
}

var champions = []struct {
	id   int
	name string
}{{1, "Annie"}, {22, "Ashe"}, {64, "LeeSin"}, {103, "Ahri"}, {157, "Yasuo"}, {412, "Thresh"}, {222, "Jinx"}, {86, "Garen"}}

var queues = []int{cache.QueueIDSoloDuo, cache.QueueIDSoloDuo, cache.QueueIDFlex, cache.QueueIDARAM, cache.QueueIDARAMMayhem}

// seedMatch builds a match with tracked players on the blue side and
// strangers filling both teams.
func seedMatch(r *rand.Rand, queueID int, ts time.Time, tracked []string) cache.MatchRecord {
	m := cache.MatchRecord{
		MatchID:   "SEED_" + uuid.NewString(),
		QueueID:   queueID,
		QueueType: cache.QueueTypeFor(queueID),
		Timestamp: ts,
	}
	blueWin := r.Intn(2) == 0
	for _, team := range []int{100, 200} {
		win := blueWin == (team == 100)
		members := []string{}
		if team == 100 {
			members = append(members, tracked...)
		}
		for len(members) < 5 {
			members = append(members, uuid.NewString())
		}
		for _, puuid := range members {
			champ := champions[r.Intn(len(champions))]
			m.Participants = append(m.Participants, cache.Participant{
				PUUID:        puuid,
				TeamID:       team,
				Win:          win,
				Kills:        r.Intn(15),
				Deaths:       r.Intn(12),
				Assists:      r.Intn(20),
				ChampionID:   champ.id,
				ChampionName: champ.name,
			})
		}
	}
	return m
}

func main() {
	log.Info("Starting cache seeder...")
	cfg := loadConfig()

	season, err := time.Parse("2006-01-02", cfg["SEASON_START_DATE"])
	if err != nil {
		log.Fatalf("Invalid SEASON_START_DATE: %s", err)
	}
	numPlayers := atoi(cfg, "SEED_PLAYERS")
	numMatches := atoi(cfg, "SEED_MATCHES")

	backend, teardown, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open cache backend: %s", err)
	}
	defer func() {
		backend.Close()
		teardown()
	}()

	ctx := context.Background()
	store := cache.New(backend)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("Refusing to seed over an unreadable cache: %s", err)
	}

	puuids := make([]string, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		puuid := uuid.NewString()
		riotID := fmt.Sprintf("Seeder%c#SEED", 'A'+i%26)
		if i >= 26 {
			riotID = fmt.Sprintf("Seeder%d#SEED", i)
		}
		rec, err := store.UpsertPlayer(riotID, puuid)
		if err != nil {
			log.Fatalf("Failed to add player %s: %s", riotID, err)
		}
		puuids = append(puuids, rec.PUUID)
	}
	log.Info("Ensured seeded players exist.", "players", len(puuids))

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	// 03:00 US Eastern on the season start date.
	start := season.Add(8 * time.Hour)
	span := time.Since(start)
	if span <= 0 {
		log.Fatalf("Season start %s is in the future", cfg["SEASON_START_DATE"])
	}

	startTime := time.Now()
	stored := 0
	for i := 0; i < numMatches; i++ {
		ts := start.Add(time.Duration(r.Int63n(int64(span)))).Truncate(time.Second).UTC()
		queueID := queues[r.Intn(len(queues))]

		size := 1 + r.Intn(2)
		if queueID == cache.QueueIDFlex {
			size = 5
		}
		size = min(size, len(puuids))
		perm := r.Perm(len(puuids))[:size]
		tracked := make([]string, 0, size)
		for _, idx := range perm {
			tracked = append(tracked, puuids[idx])
		}

		inserted, err := store.StoreMatch(seedMatch(r, queueID, ts, tracked))
		if err != nil {
			log.Fatalf("Failed to store match: %s", err)
		}
		if inserted {
			stored++
		}
	}

	now := time.Now().UTC()
	for _, puuid := range puuids {
		err := store.UpdateCursor(puuid, cache.CursorUpdate{
			Incremental: &now,
			Backfill:    &cache.BackfillCursor{Oldest: start, Complete: true},
		})
		if errors.Is(err, cache.ErrInvalidCursorTransition) {
			log.Warn("Keeping existing cursors", "puuid", puuid, "error", err)
		} else if err != nil {
			log.Fatalf("Failed to set cursors: %s", err)
		}
	}

	store.MarkUpdated(now)
	if err := store.Persist(ctx); err != nil {
		log.Fatalf("Failed to save cache: %s", err)
	}
	log.Info("Successfully seeded cache.", "matches", stored, "path", cfg["CACHE_PATH"], "duration", time.Since(startTime))
}
