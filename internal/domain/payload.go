package domain

import (
	"fmt"
	"strconv"
)

// Payload carries the event-type-specific data of a GameEvent. Each variant
// is a strongly typed struct; Fields exposes presentation-ready values for
// template substitution and enhancement prompts.
type Payload interface {
	Fields() map[string]string
}

// KillPayload accompanies first_blood and champion_kill. Killer attribution
// is a proximity heuristic; an unresolved killer leaves KillerID and
// KillerTeam empty and names the killer "Unknown".
type KillPayload struct {
	VictimID   string `json:"victim_id"`
	Victim     string `json:"victim"`
	VictimTeam Team   `json:"victim_team"`
	KillerID   string `json:"killer_id"`
	Killer     string `json:"killer"`
	KillerTeam Team   `json:"killer_team"`
}

func (p KillPayload) Fields() map[string]string {
	return map[string]string{
		"victim_id":   p.VictimID,
		"victim":      p.Victim,
		"victim_team": string(p.VictimTeam),
		"killer_id":   p.KillerID,
		"killer":      p.Killer,
		"killer_team": string(p.KillerTeam),
	}
}

// SpreePayload accompanies double_kill and triple_kill.
type SpreePayload struct {
	Champion string `json:"champion"`
	Team     Team   `json:"team"`
}

func (p SpreePayload) Fields() map[string]string {
	return map[string]string{
		"champion": p.Champion,
		"team":     string(p.Team),
	}
}

// MultiKillPayload accompanies multi_kill, with the kill-window count.
type MultiKillPayload struct {
	Champion string `json:"champion"`
	Team     Team   `json:"team"`
	Count    int    `json:"count"`
}

func (p MultiKillPayload) Fields() map[string]string {
	return map[string]string{
		"champion": p.Champion,
		"team":     string(p.Team),
		"count":    strconv.Itoa(p.Count),
	}
}

// ShutdownPayload accompanies shutdown: the killer ended the victim's streak.
type ShutdownPayload struct {
	Killer string `json:"killer"`
	Victim string `json:"victim"`
	Streak int    `json:"streak"`
}

func (p ShutdownPayload) Fields() map[string]string {
	return map[string]string{
		"killer": p.Killer,
		"victim": p.Victim,
		"streak": strconv.Itoa(p.Streak),
	}
}

// AcePayload accompanies ace: every champion of AcedTeam is down.
type AcePayload struct {
	AcedTeam Team `json:"aced_team"`
	ByTeam   Team `json:"by_team"`
}

func (p AcePayload) Fields() map[string]string {
	return map[string]string{
		"aced_team": string(p.AcedTeam),
		"by_team":   string(p.ByTeam),
	}
}

// NexusLowPayload accompanies nexus_low.
type NexusLowPayload struct {
	Team   Team    `json:"team"`
	Health float64 `json:"health"`
}

func (p NexusLowPayload) Fields() map[string]string {
	return map[string]string{
		"team":   string(p.Team),
		"health": strconv.FormatFloat(p.Health, 'f', -1, 64),
	}
}

// LevelUpPayload accompanies level_up.
type LevelUpPayload struct {
	ChampionID string `json:"champion_id"`
	Champion   string `json:"champion"`
	Team       Team   `json:"team"`
	NewLevel   int    `json:"new_level"`
}

func (p LevelUpPayload) Fields() map[string]string {
	return map[string]string{
		"champion_id": p.ChampionID,
		"champion":    p.Champion,
		"team":        string(p.Team),
		"new_level":   strconv.Itoa(p.NewLevel),
	}
}

// UltimateReadyPayload accompanies ultimate_ready.
type UltimateReadyPayload struct {
	ChampionID string `json:"champion_id"`
	Champion   string `json:"champion"`
	Team       Team   `json:"team"`
}

func (p UltimateReadyPayload) Fields() map[string]string {
	return map[string]string{
		"champion_id": p.ChampionID,
		"champion":    p.Champion,
		"team":        string(p.Team),
	}
}

// MatchEndPayload accompanies match_end. Duration is rendered with whole
// seconds, matching the commentary templates.
type MatchEndPayload struct {
	Winner   string  `json:"winner"`
	Duration float64 `json:"duration"`
}

func (p MatchEndPayload) Fields() map[string]string {
	return map[string]string{
		"winner":   p.Winner,
		"duration": fmt.Sprintf("%.0f", p.Duration),
	}
}
