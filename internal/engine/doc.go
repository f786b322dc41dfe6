// Package engine drives the commentary pipeline: each match snapshot is run
// through event detection, detected events are rendered from templates and
// fanned out to spectators, and major events optionally get LLM-enhanced
// commentary and narration on the side.
//
// The snapshot loop never waits on the LLM or the voice: enhancement runs in
// its own goroutine per event and narration is queued, so a slow upstream
// only delays its own output.
package engine
