package analytics

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-ledger/internal/cache"
	"github.com/mauv0809/league-ledger/internal/timewindow"
)

// New creates a new analytics Engine.
func New(store cache.Store, calendar timewindow.Calculator, opts Options) *Engine {
	if opts.DuoMinGames <= 0 {
		opts.DuoMinGames = DefaultDuoMinGames
	}
	if opts.DuoFallbackFloor <= 0 {
		opts.DuoFallbackFloor = DefaultDuoFallbackFloor
	}
	if opts.FlexMinGames <= 0 {
		opts.FlexMinGames = DefaultFlexMinGames
	}
	if opts.FlexTopN <= 0 {
		opts.FlexTopN = DefaultFlexTopN
	}
	return &Engine{store: store, calendar: calendar, opts: opts}
}

// Calendar exposes the tracking-day calculator the engine buckets with.
func (e *Engine) Calendar() timewindow.Calculator {
	return e.calendar
}

func (w *WinLoss) add(p cache.Participant) {
	w.Games++
	if p.Win {
		w.Wins++
	} else {
		w.Losses++
	}
	w.Kills += p.Kills
	w.Deaths += p.Deaths
	w.Assists += p.Assists
}

func (w *WinLoss) merge(o WinLoss) {
	w.Games += o.Games
	w.Wins += o.Wins
	w.Losses += o.Losses
	w.Kills += o.Kills
	w.Deaths += o.Deaths
	w.Assists += o.Assists
}

// finish computes KDA from the summed kills, deaths and assists.
func (w *WinLoss) finish() {
	if w.Games == 0 {
		w.KDA = 0
		return
	}
	w.KDA = float64(w.Kills+w.Assists) / float64(max(w.Deaths, 1))
}

func winRate(wins, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(wins) / float64(games) * 100
}

// DailyRecords reports every tracked player's results for day.
func (e *Engine) DailyRecords(day timewindow.DayKey) (*DailyReport, error) {
	start, end, err := e.calendar.DayBounds(day)
	if err != nil {
		return nil, err
	}

	players := e.store.Players()
	byPUUID := make(map[string]string, len(players))
	perQueue := make(map[string]map[cache.QueueType]*WinLoss, len(players))
	for _, p := range players {
		byPUUID[p.PUUID] = p.RiotID
		perQueue[p.RiotID] = make(map[cache.QueueType]*WinLoss)
	}

	for m := range e.store.Matches() {
		if m.Timestamp.Before(start) {
			continue
		}
		if e.calendar.TrackingDay(m.Timestamp) != day {
			continue
		}
		for _, part := range m.Participants {
			riotID, ok := byPUUID[part.PUUID]
			if !ok {
				continue
			}
			wl := perQueue[riotID][m.QueueType]
			if wl == nil {
				wl = &WinLoss{}
				perQueue[riotID][m.QueueType] = wl
			}
			wl.add(part)
		}
	}

	report := &DailyReport{
		Day:   day,
		Start: start,
		End:   end,
		Total: PlayerDay{RiotID: TotalRowID},
	}
	totals := make(map[cache.QueueType]*WinLoss)
	for _, p := range players {
		row := PlayerDay{RiotID: p.RiotID}
		for _, q := range reportedQueues {
			var wl WinLoss
			if got := perQueue[p.RiotID][q]; got != nil {
				wl = *got
			}
			wl.finish()
			row.Queues = append(row.Queues, QueueRecord{Queue: q, WinLoss: wl})
			row.Total.merge(wl)

			if totals[q] == nil {
				totals[q] = &WinLoss{}
			}
			totals[q].merge(wl)
		}
		row.Total.finish()
		report.Total.Total.merge(row.Total)
		report.Players = append(report.Players, row)
	}
	for _, q := range reportedQueues {
		var wl WinLoss
		if got := totals[q]; got != nil {
			wl = *got
		}
		wl.finish()
		report.Total.Queues = append(report.Total.Queues, QueueRecord{Queue: q, WinLoss: wl})
	}
	report.Total.Total.finish()

	sort.SliceStable(report.Players, func(i, j int) bool {
		a, b := report.Players[i], report.Players[j]
		if a.Total.Games != b.Total.Games {
			return a.Total.Games > b.Total.Games
		}
		return a.RiotID < b.RiotID
	})
	log.Debug("Computed daily records", "day", day, "players", len(report.Players), "games", report.Total.Total.Games)
	return report, nil
}

// TodayRecords reports the tracking day containing now.
func (e *Engine) TodayRecords(now time.Time) (*DailyReport, error) {
	return e.DailyRecords(e.calendar.CurrentDay(now))
}

// TopDuos ranks pairs of tracked players by their Solo/Duo record together
// this season. When no pair reaches minGames the threshold is lowered one
// game at a time down to the configured floor. minGames <= 0 uses the default.
func (e *Engine) TopDuos(minGames int) *DuoReport {
	if minGames <= 0 {
		minGames = e.opts.DuoMinGames
	}
	floor := min(e.opts.DuoFallbackFloor, minGames)

	byPUUID := e.trackedPUUIDs()
	type acc struct{ games, wins int }
	pairs := make(map[[2]string]*acc)

	for m := range e.store.Matches() {
		if m.QueueType != cache.QueueSoloDuo || !e.calendar.IsWithinSeason(m.Timestamp) {
			continue
		}
		for _, team := range trackedTeams(m, byPUUID) {
			for i := 0; i < len(team.members); i++ {
				for j := i + 1; j < len(team.members); j++ {
					key := [2]string{team.members[i], team.members[j]}
					a := pairs[key]
					if a == nil {
						a = &acc{}
						pairs[key] = a
					}
					a.games++
					if team.win {
						a.wins++
					}
				}
			}
		}
	}

	report := &DuoReport{RequestedMinGames: minGames}
	for threshold := minGames; threshold >= floor; threshold-- {
		report.AppliedMinGames = threshold
		report.Duos = report.Duos[:0]
		for key, a := range pairs {
			if a.games < threshold {
				continue
			}
			report.Duos = append(report.Duos, DuoStats{
				Players: key,
				Games:   a.games,
				Wins:    a.wins,
				WinRate: winRate(a.wins, a.games),
			})
		}
		if len(report.Duos) > 0 {
			break
		}
	}
	report.Relaxed = report.AppliedMinGames < minGames
	if report.Duos == nil {
		report.Duos = make([]DuoStats, 0)
	}

	sort.Slice(report.Duos, func(i, j int) bool {
		a, b := report.Duos[i], report.Duos[j]
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Players[0]+"\x00"+a.Players[1] < b.Players[0]+"\x00"+b.Players[1]
	})
	return report
}

// TopFlexStacks ranks five-player flex stacks this season. Stacks with at
// least the minimum games come first; when fewer than the top N qualify the
// list is filled with smaller samples.
func (e *Engine) TopFlexStacks() *FlexReport {
	byPUUID := e.trackedPUUIDs()
	stacks := make(map[string]*StackStats)

	for m := range e.store.Matches() {
		if m.QueueType != cache.QueueFlex || !e.calendar.IsWithinSeason(m.Timestamp) {
			continue
		}
		for _, team := range trackedTeams(m, byPUUID) {
			if len(team.members) != 5 {
				continue
			}
			key := strings.Join(team.members, ",")
			s := stacks[key]
			if s == nil {
				s = &StackStats{Players: team.members}
				stacks[key] = s
			}
			s.Games++
			if team.win {
				s.Wins++
			} else {
				s.Losses++
			}
		}
	}

	var qualified, small []StackStats
	for _, s := range stacks {
		s.WinRate = winRate(s.Wins, s.Games)
		if s.Games >= e.opts.FlexMinGames {
			qualified = append(qualified, *s)
		} else {
			small = append(small, *s)
		}
	}
	sortStacks(qualified)
	sortStacks(small)

	top := qualified
	if len(top) > e.opts.FlexTopN {
		top = top[:e.opts.FlexTopN]
	}
	if missing := e.opts.FlexTopN - len(top); missing > 0 {
		top = append(top, small[:min(missing, len(small))]...)
	}
	return &FlexReport{
		DistinctStacks: len(stacks),
		MinGames:       e.opts.FlexMinGames,
		Stacks:         top,
	}
}

func sortStacks(s []StackStats) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].WinRate != s[j].WinRate {
			return s[i].WinRate > s[j].WinRate
		}
		if s[i].Games != s[j].Games {
			return s[i].Games > s[j].Games
		}
		return strings.Join(s[i].Players, ",") < strings.Join(s[j].Players, ",")
	})
}

// QueueCounts returns the player's cached games per raw queue id, most played first.
func (e *Engine) QueueCounts(riotID string) ([]QueueCount, error) {
	p, ok := e.store.Player(riotID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrPlayerNotFound, riotID)
	}
	return countQueues(e.store.MatchesForPlayer(p.PUUID, cache.NewestFirst)), nil
}

// PoolQueueCounts returns every cached game per raw queue id, most played first.
func (e *Engine) PoolQueueCounts() []QueueCount {
	return countQueues(e.store.Matches())
}

func countQueues(matches iter.Seq[cache.MatchRecord]) []QueueCount {
	counts := make(map[int]int)
	for m := range matches {
		counts[m.QueueID]++
	}
	out := make([]QueueCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, QueueCount{QueueID: id, QueueType: cache.QueueTypeFor(id), Games: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].QueueID < out[j].QueueID
	})
	return out
}

// PlayerProfile reports the player's K/D/A over their newest recentGames
// matches and their most played champions over the newest championGames
// Solo/Duo matches. Non-positive windows take the defaults.
func (e *Engine) PlayerProfile(riotID string, recentGames, championGames int) (*PlayerProfile, error) {
	p, ok := e.store.Player(riotID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrPlayerNotFound, riotID)
	}
	if recentGames <= 0 {
		recentGames = DefaultProfileRecentGames
	}
	if championGames <= 0 {
		championGames = DefaultProfileChampionGames
	}

	profile := &PlayerProfile{
		RiotID:         p.RiotID,
		PUUID:          p.PUUID,
		RecentWindow:   recentGames,
		ChampionWindow: championGames,
	}
	champs := make(map[int]*ChampionRecord)
	for m := range e.store.MatchesForPlayer(p.PUUID, cache.NewestFirst) {
		profile.CachedMatches++
		me, ok := participantOf(m, p.PUUID)
		if !ok {
			continue
		}
		if profile.Recent.Games < recentGames {
			profile.Recent.add(me)
		}
		if m.QueueType != cache.QueueSoloDuo || profile.SoloDuoGames >= championGames {
			continue
		}
		profile.SoloDuoGames++
		c := champs[me.ChampionID]
		if c == nil {
			c = &ChampionRecord{ChampionID: me.ChampionID, Champion: championLabel(me)}
			champs[me.ChampionID] = c
		}
		c.Games++
		if me.Win {
			c.Wins++
		} else {
			c.Losses++
		}
	}
	profile.Recent.finish()

	profile.Champions = make([]ChampionRecord, 0, len(champs))
	for _, c := range champs {
		c.WinRate = winRate(c.Wins, c.Games)
		profile.Champions = append(profile.Champions, *c)
	}
	sort.Slice(profile.Champions, func(i, j int) bool {
		a, b := profile.Champions[i], profile.Champions[j]
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Champion < b.Champion
	})
	if len(profile.Champions) > ProfileTopChampions {
		profile.Champions = profile.Champions[:ProfileTopChampions]
	}
	return profile, nil
}

func participantOf(m cache.MatchRecord, puuid string) (cache.Participant, bool) {
	for _, p := range m.Participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return cache.Participant{}, false
}

func championLabel(p cache.Participant) string {
	if p.ChampionName != "" {
		return p.ChampionName
	}
	return fmt.Sprintf("Champion %d", p.ChampionID)
}

func (e *Engine) trackedPUUIDs() map[string]string {
	players := e.store.Players()
	out := make(map[string]string, len(players))
	for _, p := range players {
		out[p.PUUID] = p.RiotID
	}
	return out
}

type team struct {
	members []string // sorted riot ids
	win     bool
}

// trackedTeams groups the tracked participants of m by team.
func trackedTeams(m cache.MatchRecord, byPUUID map[string]string) []team {
	index := make(map[int]int)
	var teams []team
	for _, p := range m.Participants {
		riotID, ok := byPUUID[p.PUUID]
		if !ok {
			continue
		}
		i, seen := index[p.TeamID]
		if !seen {
			i = len(teams)
			index[p.TeamID] = i
			teams = append(teams, team{win: p.Win})
		}
		teams[i].members = append(teams[i].members, riotID)
	}
	for i := range teams {
		sort.Strings(teams[i].members)
	}
	return teams
}
