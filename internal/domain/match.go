package domain

// Team identifies one of the two sides of a match.
type Team string

const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

// Opponent returns the opposing team. Any value other than blue maps to
// blue, mirroring how the match server treats unknown teams.
func (t Team) Opponent() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

// MatchStatus is the lifecycle phase reported by the match server.
type MatchStatus string

const (
	StatusPending MatchStatus = "pending"
	StatusPlaying MatchStatus = "playing"
	StatusEnded   MatchStatus = "ended"
)

// Position is a champion's location on the map.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChampionRecord is one champion's entry within a single snapshot.
// Fields whose absence must not look like a zero value are pointers;
// use the accessor methods to get the defaulted value.
type ChampionRecord struct {
	ID        string   `json:"id"`
	Champion  string   `json:"champion"`
	Team      Team     `json:"team"`
	Health    float64  `json:"health"`
	MaxHealth *float64 `json:"max_health"`
	Level     *int     `json:"level"`
	IsAlive   *bool    `json:"is_alive"`
	Position  Position `json:"position"`
}

// Defaults applied to missing champion fields.
const (
	DefaultChampionName = "Unknown"
	DefaultMaxHealth    = 600.0
	DefaultLevel        = 1
)

// Alive reports the champion's alive flag, defaulting to true when the
// feed omitted it.
func (c ChampionRecord) Alive() bool {
	if c.IsAlive == nil {
		return true
	}
	return *c.IsAlive
}

// LevelValue returns the champion's level, defaulting to 1.
func (c ChampionRecord) LevelValue() int {
	if c.Level == nil {
		return DefaultLevel
	}
	return *c.Level
}

// MaxHealthValue returns the champion's maximum health, defaulting to 600.
func (c ChampionRecord) MaxHealthValue() float64 {
	if c.MaxHealth == nil {
		return DefaultMaxHealth
	}
	return *c.MaxHealth
}

// Name returns the champion type, defaulting to "Unknown".
func (c ChampionRecord) Name() string {
	if c.Champion == "" {
		return DefaultChampionName
	}
	return c.Champion
}

// TeamValue returns the champion's team, defaulting to blue.
func (c ChampionRecord) TeamValue() Team {
	if c.Team == "" {
		return TeamBlue
	}
	return c.Team
}

// DefaultNexusHealth is assumed when a snapshot omits a nexus reading.
const DefaultNexusHealth = 5000.0

// Snapshot is one tick's complete game state as delivered by the match
// server. Snapshots arrive at most once per tick, in increasing tick order.
type Snapshot struct {
	Tick            int64            `json:"tick"`
	MatchTime       float64          `json:"match_time"`
	Status          MatchStatus      `json:"status"`
	Champions       []ChampionRecord `json:"champions"`
	BlueNexusHealth *float64         `json:"blue_nexus_health"`
	RedNexusHealth  *float64         `json:"red_nexus_health"`
	Winner          string           `json:"winner"`
}

// NexusHealth returns the given team's nexus health, defaulting to 5000
// when the snapshot carries no reading for it.
func (s Snapshot) NexusHealth(team Team) float64 {
	var v *float64
	switch team {
	case TeamRed:
		v = s.RedNexusHealth
	default:
		v = s.BlueNexusHealth
	}
	if v == nil {
		return DefaultNexusHealth
	}
	return *v
}
