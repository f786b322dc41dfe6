// Package server exposes the spectator-facing HTTP surface: the commentary
// WebSocket endpoint, health probes, session stats, and Prometheus metrics.
//
// The server accepts spectators independently of any single match feed's
// lifetime; a finished or dropped match never takes this surface down.
package server
