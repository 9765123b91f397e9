package cache

import "fmt"

func normalizeSnapshot(snap *Snapshot) {
	for k, p := range snap.Players {
		p.LastIncrementalCursor = normalizeTime(p.LastIncrementalCursor)
		p.SeasonBackfillCursor.Oldest = normalizeTime(p.SeasonBackfillCursor.Oldest)
		p.AddedAt = normalizeTime(p.AddedAt)
		snap.Players[k] = p
	}
	for k, m := range snap.Matches {
		m.Timestamp = normalizeTime(m.Timestamp)
		snap.Matches[k] = m
	}
	snap.Metadata.LastGlobalSave = normalizeTime(snap.Metadata.LastGlobalSave)
	snap.Metadata.LastUpdate = normalizeTime(snap.Metadata.LastUpdate)
}

// validateSnapshot checks the structural consistency of a loaded document.
func validateSnapshot(snap *Snapshot) error {
	if snap.Metadata.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", snap.Metadata.SchemaVersion)
	}

	puuids := make(map[string]string, len(snap.Players))
	for riotID, p := range snap.Players {
		if riotID == "" || p.RiotID != riotID {
			return fmt.Errorf("player key %q does not match record riot id %q", riotID, p.RiotID)
		}
		if p.PUUID == "" {
			return fmt.Errorf("player %q has no puuid", riotID)
		}
		if other, dup := puuids[p.PUUID]; dup {
			return fmt.Errorf("puuid %s shared by %q and %q", p.PUUID, other, riotID)
		}
		puuids[p.PUUID] = riotID
	}

	for id, m := range snap.Matches {
		if id == "" || m.MatchID != id {
			return fmt.Errorf("match key %q does not match record id %q", id, m.MatchID)
		}
	}

	for puuid, ids := range snap.Index {
		if _, tracked := puuids[puuid]; !tracked {
			return fmt.Errorf("index entry for untracked puuid %s", puuid)
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				return fmt.Errorf("index for %s lists match %s twice", puuid, id)
			}
			seen[id] = true
			m, ok := snap.Matches[id]
			if !ok {
				return fmt.Errorf("index for %s references missing match %s", puuid, id)
			}
			if !hasParticipant(m, puuid) {
				return fmt.Errorf("index for %s references match %s without that participant", puuid, id)
			}
		}
	}
	return nil
}
