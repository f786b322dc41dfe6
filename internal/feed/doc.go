// Package feed streams live match snapshots from the match server.
//
// The client dials /spectate/{match_id}, announces itself with a spectate
// handshake, and delivers decoded snapshots in arrival order on a channel.
// Dropped connections are re-dialed under a bounded fixed-delay retry policy;
// a normal close from the server ends the stream.
package feed
