package detect

import (
	"math"

	"github.com/GianTheRios/league-of-molts/internal/domain"
)

const (
	// killWindowSeconds is the rolling window for multi-kill classification.
	killWindowSeconds = 10.0
	// shutdownStreak is the minimum victim streak that makes a kill a shutdown.
	shutdownStreak = 3
	// ultimateLevel is the level at which a champion's ultimate unlocks.
	ultimateLevel = 6
	// nexusLowThreshold is the health at or below which a nexus counts as critical.
	nexusLowThreshold = 1000.0
)

// championState is the per-champion memory retained across snapshots.
// Champion name and team are fixed at first sighting; the remaining fields
// are refreshed every snapshot the champion appears in.
type championState struct {
	id          string
	champion    string
	team        domain.Team
	health      float64
	maxHealth   float64
	level       int
	alive       bool
	position    domain.Position
	killStreak  int
	recentKills []float64
}

// Detector turns a stream of snapshots into a stream of game events by
// stateful diffing. Construct one per match with New and feed it snapshots
// in tick order.
type Detector struct {
	champions map[string]*championState
	order     []string
	teamAlive map[domain.Team]int

	firstBloodOccurred bool
	matchStarted       bool
	matchEnded         bool
}

// New returns a Detector with no tracked state.
func New() *Detector {
	return &Detector{
		champions: make(map[string]*championState),
		teamAlive: map[domain.Team]int{
			domain.TeamBlue: 0,
			domain.TeamRed:  0,
		},
	}
}

// Detect diffs the snapshot against tracked state and returns the events it
// implies, in a fixed order: match start, per-champion changes in snapshot
// order, team aces, structure warnings, match end. Malformed snapshots never
// fail; missing fields take safe defaults and unknown champion ids are
// adopted silently.
func (d *Detector) Detect(snap domain.Snapshot) []domain.GameEvent {
	var events []domain.GameEvent
	tick := snap.Tick
	ts := snap.MatchTime

	if !d.matchStarted && snap.Status == domain.StatusPlaying {
		d.matchStarted = true
		events = append(events, domain.GameEvent{
			Type:      domain.EventMatchStart,
			Timestamp: ts,
			Tick:      tick,
		})
	}

	for _, champ := range snap.Champions {
		events = append(events, d.processChampion(champ, tick, ts)...)
	}

	events = append(events, d.checkAces(tick, ts)...)
	events = append(events, d.checkStructures(snap, tick, ts)...)

	if !d.matchEnded && snap.Status == domain.StatusEnded {
		d.matchEnded = true
		events = append(events, domain.GameEvent{
			Type:      domain.EventMatchEnd,
			Timestamp: ts,
			Tick:      tick,
			Payload: domain.MatchEndPayload{
				Winner:   snap.Winner,
				Duration: ts,
			},
		})
	}

	return events
}

// processChampion diffs one champion record against its tracked state.
// First sighting adopts the champion without emitting anything.
func (d *Detector) processChampion(rec domain.ChampionRecord, tick int64, ts float64) []domain.GameEvent {
	state, ok := d.champions[rec.ID]
	if !ok {
		d.adopt(rec)
		return nil
	}

	var events []domain.GameEvent
	alive := rec.Alive()
	level := rec.LevelValue()

	if state.alive && !alive {
		events = append(events, d.onChampionDeath(state, tick, ts)...)
	}

	// Respawn edge is the only path that clears a kill streak.
	if !state.alive && alive {
		state.killStreak = 0
	}

	if level > state.level {
		events = append(events, domain.GameEvent{
			Type:      domain.EventLevelUp,
			Timestamp: ts,
			Tick:      tick,
			Payload: domain.LevelUpPayload{
				ChampionID: state.id,
				Champion:   state.champion,
				Team:       state.team,
				NewLevel:   level,
			},
		})

		if level == ultimateLevel {
			events = append(events, domain.GameEvent{
				Type:      domain.EventUltimateReady,
				Timestamp: ts,
				Tick:      tick,
				Payload: domain.UltimateReadyPayload{
					ChampionID: state.id,
					Champion:   state.champion,
					Team:       state.team,
				},
			})
		}
	}

	state.health = rec.Health
	state.maxHealth = rec.MaxHealthValue()
	state.level = level
	state.alive = alive
	state.position = rec.Position

	return events
}

func (d *Detector) adopt(rec domain.ChampionRecord) {
	d.champions[rec.ID] = &championState{
		id:        rec.ID,
		champion:  rec.Name(),
		team:      rec.TeamValue(),
		health:    rec.Health,
		maxHealth: rec.MaxHealthValue(),
		level:     rec.LevelValue(),
		alive:     rec.Alive(),
		position:  rec.Position,
	}
	d.order = append(d.order, rec.ID)
}

// onChampionDeath emits the kill event for a death edge, plus any
// multi-kill and shutdown events it implies. The victim's streak is read
// before any bookkeeping so a shutdown reports the streak that was ended.
func (d *Detector) onChampionDeath(victim *championState, tick int64, ts float64) []domain.GameEvent {
	var events []domain.GameEvent

	killer := d.likelyKiller(victim)

	kill := domain.KillPayload{
		VictimID:   victim.id,
		Victim:     victim.champion,
		VictimTeam: victim.team,
		Killer:     domain.DefaultChampionName,
	}
	if killer != nil {
		kill.KillerID = killer.id
		kill.Killer = killer.champion
		kill.KillerTeam = killer.team
	}

	kind := domain.EventChampionKill
	if !d.firstBloodOccurred {
		d.firstBloodOccurred = true
		kind = domain.EventFirstBlood
	}
	events = append(events, domain.GameEvent{
		Type:      kind,
		Timestamp: ts,
		Tick:      tick,
		Payload:   kill,
	})

	if killer == nil {
		return events
	}

	killer.killStreak++
	killer.recentKills = append(killer.recentKills, ts)

	// Keep only kills strictly inside the rolling window.
	kept := killer.recentKills[:0]
	for _, t := range killer.recentKills {
		if ts-t < killWindowSeconds {
			kept = append(kept, t)
		}
	}
	killer.recentKills = kept

	switch n := len(killer.recentKills); {
	case n == 2:
		events = append(events, domain.GameEvent{
			Type:      domain.EventDoubleKill,
			Timestamp: ts,
			Tick:      tick,
			Payload:   domain.SpreePayload{Champion: killer.champion, Team: killer.team},
		})
	case n == 3:
		events = append(events, domain.GameEvent{
			Type:      domain.EventTripleKill,
			Timestamp: ts,
			Tick:      tick,
			Payload:   domain.SpreePayload{Champion: killer.champion, Team: killer.team},
		})
	case n > 3:
		events = append(events, domain.GameEvent{
			Type:      domain.EventMultiKill,
			Timestamp: ts,
			Tick:      tick,
			Payload:   domain.MultiKillPayload{Champion: killer.champion, Team: killer.team, Count: n},
		})
	}

	if victim.killStreak >= shutdownStreak {
		events = append(events, domain.GameEvent{
			Type:      domain.EventShutdown,
			Timestamp: ts,
			Tick:      tick,
			Payload: domain.ShutdownPayload{
				Killer: killer.champion,
				Victim: victim.champion,
				Streak: victim.killStreak,
			},
		})
	}

	return events
}

// likelyKiller picks the nearest alive champion on the opposing team by
// Euclidean distance over tracked positions. This is a heuristic, not real
// damage attribution: in a pile-up the closest enemy gets the credit.
// Champions earlier in snapshot order have already been refreshed this tick,
// later ones still hold last tick's position.
func (d *Detector) likelyKiller(victim *championState) *championState {
	enemyTeam := victim.team.Opponent()

	var closest *championState
	closestDist := math.Inf(1)

	for _, id := range d.order {
		champ := d.champions[id]
		if champ.team != enemyTeam || !champ.alive {
			continue
		}

		dist := math.Hypot(champ.position.X-victim.position.X, champ.position.Y-victim.position.Y)
		if dist < closestDist {
			closest = champ
			closestDist = dist
		}
	}

	return closest
}

// checkAces emits an ace for each team whose alive count just transitioned
// from positive to zero. Counts are recomputed from tracked state and stored
// every call, so a team must revive before it can be aced again.
func (d *Detector) checkAces(tick int64, ts float64) []domain.GameEvent {
	var events []domain.GameEvent

	for _, team := range []domain.Team{domain.TeamBlue, domain.TeamRed} {
		alive := 0
		for _, id := range d.order {
			champ := d.champions[id]
			if champ.team == team && champ.alive {
				alive++
			}
		}

		if d.teamAlive[team] > 0 && alive == 0 {
			events = append(events, domain.GameEvent{
				Type:      domain.EventAce,
				Timestamp: ts,
				Tick:      tick,
				Payload: domain.AcePayload{
					AcedTeam: team,
					ByTeam:   team.Opponent(),
				},
			})
		}

		d.teamAlive[team] = alive
	}

	return events
}

// checkStructures emits nexus warnings. A critical nexus re-fires every
// snapshot the condition holds; rate limiting is left to the consumer.
func (d *Detector) checkStructures(snap domain.Snapshot, tick int64, ts float64) []domain.GameEvent {
	var events []domain.GameEvent

	for _, team := range []domain.Team{domain.TeamBlue, domain.TeamRed} {
		health := snap.NexusHealth(team)
		if health <= nexusLowThreshold && health > 0 {
			events = append(events, domain.GameEvent{
				Type:      domain.EventNexusLow,
				Timestamp: ts,
				Tick:      tick,
				Payload:   domain.NexusLowPayload{Team: team, Health: health},
			})
		}
	}

	return events
}
