// Package narrate speaks commentary lines through an external
// text-to-speech command.
//
// Narration runs on a single worker with a bounded queue: speech is much
// slower than commentary, so excess lines are dropped rather than letting
// audio lag behind the match.
package narrate
