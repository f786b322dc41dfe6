// Package domain defines the core domain types shared across the engine.
//
// This package contains concept-oriented files (match.go, event.go, payload.go)
// with the snapshot wire model and the detected-event model. No implementation
// code - just types. Interfaces live on the consumer side.
package domain
