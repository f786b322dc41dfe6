package domain

// EventType classifies a detected game event. The detector emits a subset
// of these; the remainder exist in the match vocabulary and keep their
// commentary templates.
type EventType string

const (
	// Kill events
	EventChampionKill EventType = "champion_kill"
	EventFirstBlood   EventType = "first_blood"
	EventDoubleKill   EventType = "double_kill"
	EventTripleKill   EventType = "triple_kill"
	EventMultiKill    EventType = "multi_kill"
	EventShutdown     EventType = "shutdown"
	EventAce          EventType = "ace"

	// Objective events
	EventTowerDestroyed EventType = "tower_destroyed"
	EventNexusLow       EventType = "nexus_low"
	EventNexusDestroyed EventType = "nexus_destroyed"

	// Combat events
	EventCloseFight     EventType = "close_fight"
	EventTeamfightStart EventType = "teamfight_start"
	EventTeamfightEnd   EventType = "teamfight_end"

	// Lane events
	EventMinionWave    EventType = "minion_wave"
	EventPushAdvantage EventType = "push_advantage"

	// Champion events
	EventLevelUp       EventType = "level_up"
	EventUltimateReady EventType = "ultimate_ready"
	EventBigPlay       EventType = "big_play"

	// Match events
	EventMatchStart EventType = "match_start"
	EventMatchEnd   EventType = "match_end"
)

// majorTypes are the events worth second-tier narrative enhancement.
var majorTypes = map[EventType]struct{}{
	EventFirstBlood:     {},
	EventDoubleKill:     {},
	EventTripleKill:     {},
	EventMultiKill:      {},
	EventAce:            {},
	EventShutdown:       {},
	EventTowerDestroyed: {},
	EventNexusLow:       {},
	EventNexusDestroyed: {},
	EventTeamfightEnd:   {},
	EventBigPlay:        {},
	EventMatchEnd:       {},
}

// Major reports whether events of this type qualify for asynchronous
// enhancement and narration.
func (t EventType) Major() bool {
	_, ok := majorTypes[t]
	return ok
}

// GameEvent is one detected event. Timestamp is match-relative seconds and
// Tick is the snapshot tick that produced it. Payload is nil for events
// that carry no data (match_start).
type GameEvent struct {
	Type      EventType
	Timestamp float64
	Tick      int64
	Payload   Payload
}

// IsMajor reports whether the event qualifies for enhancement.
func (e GameEvent) IsMajor() bool {
	return e.Type.Major()
}

// Fields returns the event's payload fields for template substitution,
// or an empty map when the event carries no payload.
func (e GameEvent) Fields() map[string]string {
	if e.Payload == nil {
		return map[string]string{}
	}
	return e.Payload.Fields()
}
