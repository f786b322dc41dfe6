package commentary

import "github.com/GianTheRios/league-of-molts/internal/domain"

// templates is the fixed commentary catalog, keyed by event type. Event
// types without an entry produce no fast-path line. Placeholders use
// {field} syntax against the event payload's Fields.
var templates = map[domain.EventType][]string{
	domain.EventMatchStart: {
		"Welcome to the Rift! The match has begun!",
		"Let's get ready to rumble! Match is starting!",
		"Champions are taking their positions. The battle begins!",
	},

	domain.EventFirstBlood: {
		"{killer} draws first blood on {victim}!",
		"FIRST BLOOD! {killer} takes down {victim}!",
		"{killer} gets the first kill of the game against {victim}!",
	},

	domain.EventChampionKill: {
		"{killer} eliminates {victim}!",
		"{victim} has been slain by {killer}.",
		"{killer} takes down {victim}!",
		"And {victim} goes down to {killer}!",
	},

	domain.EventDoubleKill: {
		"DOUBLE KILL for {champion}!",
		"{champion} picks up a double kill!",
		"Two down! {champion} is on fire!",
	},

	domain.EventTripleKill: {
		"TRIPLE KILL! {champion} is unstoppable!",
		"{champion} with the TRIPLE KILL!",
		"Three kills for {champion}! What a play!",
	},

	domain.EventMultiKill: {
		"{champion} IS ON A RAMPAGE! {count} KILLS!",
		"LEGENDARY! {champion} with {count} kills!",
		"{champion} is absolutely dominating with {count} kills!",
	},

	domain.EventShutdown: {
		"{killer} SHUTS DOWN {victim}! End of a {streak} kill streak!",
		"The rampage is over! {killer} stops {victim}!",
		"{killer} puts an end to {victim}'s killing spree!",
	},

	domain.EventAce: {
		"ACE! {by_team} team wipes out {aced_team}!",
		"ACED! Not a single {aced_team} champion standing!",
		"Total annihilation! {by_team} aces {aced_team}!",
	},

	domain.EventTowerDestroyed: {
		"{team}'s tower has been destroyed!",
		"Tower down for {team}!",
		"Another tower falls for {team}!",
	},

	domain.EventNexusLow: {
		"{team}'s nexus is critical! Only {health} HP remaining!",
		"The {team} nexus is under heavy attack!",
		"Things are looking dire for {team}!",
	},

	domain.EventNexusDestroyed: {
		"{winner} destroys the nexus! VICTORY!",
		"GG! {winner} wins the match!",
		"And that's the game! {winner} takes the victory!",
	},

	domain.EventLevelUp: {
		"{champion} reaches level {new_level}.",
		"{champion} levels up to {new_level}!",
	},

	domain.EventUltimateReady: {
		"{champion}'s ultimate is now available!",
		"Watch out! {champion} has their ultimate ready!",
	},

	domain.EventMatchEnd: {
		"GG! {winner} wins in {duration} seconds!",
		"What a match! {winner} takes the victory!",
		"And it's over! {winner} claims victory!",
	},
}
