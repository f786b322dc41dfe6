// Package detect implements the event detection state machine.
//
// A Detector consumes one match snapshot at a time and emits the domain
// events implied by the diff against its tracked per-champion and per-team
// state. It is purely sequential: one instance belongs to one match session
// and must only be driven from a single goroutine.
package detect
