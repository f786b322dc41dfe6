// Package broadcast implements the spectator WebSocket fan-out using the actor pattern.
//
// The Broadcaster pushes commentary lines to all connected spectators as the engine produces them.
// Uses single goroutine + command channel (no mutexes). Per-connection write goroutines handle slow clients gracefully.
package broadcast
