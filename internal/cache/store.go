package cache

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var _ Store = (*store)(nil)

// New creates an empty Store persisting through backend. Call Load before use.
func New(backend Backend) Store {
	return newStore(backend, time.Now)
}

func newStore(backend Backend, now func() time.Time) *store {
	return &store{
		backend: backend,
		now:     now,
		players: make(map[string]*PlayerRecord),
		byPUUID: make(map[string]string),
		matches: make(map[string]MatchRecord),
		index:   make(map[string][]string),
		meta:    Metadata{SchemaVersion: SchemaVersion},
	}
}

// UpsertPlayer creates the player or returns the existing record for riotID.
// A new player's already-cached matches are indexed immediately.
func (s *store) UpsertPlayer(riotID, puuid string) (PlayerRecord, error) {
	if riotID == "" || puuid == "" {
		return PlayerRecord{}, fmt.Errorf("%w: riot id and puuid are required", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.players[riotID]; ok {
		if existing.PUUID != puuid {
			log.Warn("Ignoring puuid change for tracked player", "riot_id", riotID, "stored", existing.PUUID, "given", puuid)
		}
		return *existing, nil
	}
	if other, ok := s.byPUUID[puuid]; ok {
		return PlayerRecord{}, fmt.Errorf("%w: %s is %s", ErrDuplicatePUUID, puuid, other)
	}

	rec := &PlayerRecord{
		RiotID:  riotID,
		PUUID:   puuid,
		AddedAt: s.now().UTC(),
	}
	if name, tag, ok := strings.Cut(riotID, "#"); ok {
		rec.GameName, rec.TagLine = name, tag
	}
	s.players[riotID] = rec
	s.byPUUID[puuid] = riotID

	var ids []string
	for id, m := range s.matches {
		if hasParticipant(m, puuid) {
			ids = append(ids, id)
		}
	}
	s.sortIDsLocked(ids)
	s.index[puuid] = ids
	log.Info("Tracking new player", "riot_id", riotID, "puuid", puuid, "cached_matches", len(ids))
	return *rec, nil
}

func (s *store) Player(riotID string) (PlayerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.players[riotID]
	if !ok {
		return PlayerRecord{}, false
	}
	return *rec, true
}

func (s *store) PlayerByPUUID(puuid string) (PlayerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	riotID, ok := s.byPUUID[puuid]
	if !ok {
		return PlayerRecord{}, false
	}
	return *s.players[riotID], true
}

// Players returns every tracked player ordered by riot id.
func (s *store) Players() []PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PlayerRecord, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RiotID < out[j].RiotID })
	return out
}

func (s *store) HasMatch(matchID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.matches[matchID]
	return ok
}

func (s *store) GetMatch(matchID string) (MatchRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	return m, ok
}

func (s *store) MatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// StoreMatch inserts the match unless its id is already present. It reports
// whether the match was inserted.
func (s *store) StoreMatch(match MatchRecord) (bool, error) {
	if match.MatchID == "" {
		return false, fmt.Errorf("%w: match id is required", ErrInvalidRecord)
	}
	match.Timestamp = normalizeTime(match.Timestamp)
	match.Participants = slices.Clone(match.Participants)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.MatchID]; ok {
		return false, nil
	}
	s.matches[match.MatchID] = match

	seen := make(map[string]bool, len(match.Participants))
	for _, p := range match.Participants {
		if seen[p.PUUID] {
			continue
		}
		seen[p.PUUID] = true
		if _, tracked := s.byPUUID[p.PUUID]; tracked {
			s.index[p.PUUID] = s.insertSortedLocked(s.index[p.PUUID], match)
		}
	}
	return true, nil
}

// MatchesForPlayer yields the player's indexed matches. Each range over the
// sequence reads the index afresh, so the sequence can be restarted.
func (s *store) MatchesForPlayer(puuid string, order Order) iter.Seq[MatchRecord] {
	return func(yield func(MatchRecord) bool) {
		s.mu.RLock()
		ids := slices.Clone(s.index[puuid])
		s.mu.RUnlock()

		if order == NewestFirst {
			slices.Reverse(ids)
		}
		for _, id := range ids {
			m, ok := s.GetMatch(id)
			if !ok {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Matches yields every cached match, oldest first.
func (s *store) Matches() iter.Seq[MatchRecord] {
	return func(yield func(MatchRecord) bool) {
		s.mu.RLock()
		all := make([]MatchRecord, 0, len(s.matches))
		for _, m := range s.matches {
			all = append(all, m)
		}
		s.mu.RUnlock()

		sort.Slice(all, func(i, j int) bool { return matchLess(all[i], all[j]) })
		for _, m := range all {
			if !yield(m) {
				return
			}
		}
	}
}

// UpdateCursor applies the given cursor changes atomically. The incremental
// cursor never decreases; the backfill cursor only moves back in time and
// never leaves the complete state.
func (s *store) UpdateCursor(puuid string, update CursorUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	riotID, ok := s.byPUUID[puuid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, puuid)
	}
	rec := s.players[riotID]

	var incremental time.Time
	if update.Incremental != nil {
		incremental = normalizeTime(*update.Incremental)
		if incremental.Before(rec.LastIncrementalCursor) {
			return fmt.Errorf("%w: incremental cursor for %s moves back from %s to %s",
				ErrInvalidCursorTransition, riotID, rec.LastIncrementalCursor, incremental)
		}
	}
	var backfill BackfillCursor
	if update.Backfill != nil {
		backfill = BackfillCursor{Oldest: normalizeTime(update.Backfill.Oldest), Complete: update.Backfill.Complete}
		if err := checkBackfillTransition(rec.SeasonBackfillCursor, backfill); err != nil {
			return fmt.Errorf("%w: backfill cursor for %s: %s", ErrInvalidCursorTransition, riotID, err)
		}
	}

	if update.Incremental != nil {
		rec.LastIncrementalCursor = incremental
	}
	if update.Backfill != nil {
		rec.SeasonBackfillCursor = backfill
	}
	return nil
}

func checkBackfillTransition(cur, next BackfillCursor) error {
	if cur.Complete && !next.Complete {
		return fmt.Errorf("cannot leave complete state")
	}
	if cur.Oldest.IsZero() {
		return nil
	}
	if next.Oldest.IsZero() {
		if next.Complete {
			return nil
		}
		return fmt.Errorf("cannot reset from %s", cur.Oldest)
	}
	if next.Oldest.After(cur.Oldest) {
		return fmt.Errorf("moves forward from %s to %s", cur.Oldest, next.Oldest)
	}
	return nil
}

func (s *store) Metadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// MarkUpdated records the completion time of an ingestion run.
func (s *store) MarkUpdated(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.LastUpdate = normalizeTime(at)
}

// Healthy reports the load failure that makes the store untrustworthy, if any.
func (s *store) Healthy() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Load replaces the in-memory state with the backend's snapshot. A snapshot
// that fails validation leaves the store unhealthy and its contents unchanged.
func (s *store) Load(ctx context.Context) error {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadErr = fmt.Errorf("load cache: %w", err)
		s.mu.Unlock()
		return s.loadErr
	}
	if snap == nil {
		log.Info("No persisted cache found, starting empty")
		s.mu.Lock()
		s.loadErr = nil
		s.mu.Unlock()
		return nil
	}

	normalizeSnapshot(snap)
	if err := validateSnapshot(snap); err != nil {
		s.mu.Lock()
		s.loadErr = fmt.Errorf("%w: %s", ErrCorruptStore, err)
		s.mu.Unlock()
		log.Error("Refusing to use persisted cache", "error", err)
		return s.loadErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = make(map[string]*PlayerRecord, len(snap.Players))
	s.byPUUID = make(map[string]string, len(snap.Players))
	for riotID, p := range snap.Players {
		rec := p
		s.players[riotID] = &rec
		s.byPUUID[p.PUUID] = riotID
	}
	s.matches = make(map[string]MatchRecord, len(snap.Matches))
	for id, m := range snap.Matches {
		s.matches[id] = m
	}
	s.index = make(map[string][]string, len(s.players))
	for puuid := range s.byPUUID {
		ids := slices.Clone(snap.Index[puuid])
		s.sortIDsLocked(ids)
		s.index[puuid] = ids
	}
	s.meta = snap.Metadata
	s.loadErr = nil
	log.Info("Loaded cache", "players", len(s.players), "matches", len(s.matches), "last_save", s.meta.LastGlobalSave)
	return nil
}

// Persist writes a consistent snapshot through the backend. Calls are serialized.
func (s *store) Persist(ctx context.Context) error {
	if err := s.Healthy(); err != nil {
		return fmt.Errorf("refusing to persist over untrusted cache: %w", err)
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snap := s.snapshot()
	snap.Metadata.LastGlobalSave = s.now().UTC()
	if err := s.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	s.mu.Lock()
	s.meta.LastGlobalSave = snap.Metadata.LastGlobalSave
	s.mu.Unlock()
	log.Debug("Persisted cache", "players", len(snap.Players), "matches", len(snap.Matches))
	return nil
}

func (s *store) snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &Snapshot{
		Players:  make(map[string]PlayerRecord, len(s.players)),
		Matches:  make(map[string]MatchRecord, len(s.matches)),
		Index:    make(map[string][]string, len(s.index)),
		Metadata: s.meta,
	}
	snap.Metadata.SchemaVersion = SchemaVersion
	for riotID, p := range s.players {
		snap.Players[riotID] = *p
	}
	for id, m := range s.matches {
		snap.Matches[id] = m
	}
	for puuid, ids := range s.index {
		snap.Index[puuid] = slices.Clone(ids)
	}
	return snap
}

func (s *store) insertSortedLocked(ids []string, m MatchRecord) []string {
	i := sort.Search(len(ids), func(i int) bool {
		return matchLess(m, s.matches[ids[i]])
	})
	return slices.Insert(ids, i, m.MatchID)
}

func (s *store) sortIDsLocked(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return matchLess(s.matches[ids[i]], s.matches[ids[j]])
	})
}

func matchLess(a, b MatchRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.MatchID < b.MatchID
}

func hasParticipant(m MatchRecord, puuid string) bool {
	for _, p := range m.Participants {
		if p.PUUID == puuid {
			return true
		}
	}
	return false
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}
