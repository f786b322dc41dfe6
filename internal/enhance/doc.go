// Package enhance rewrites template commentary into richer prose via the
// Anthropic Messages API.
//
// Calls are bounded by a per-request timeout and guarded by a circuit breaker,
// so a slow or failing upstream degrades commentary back to the template fast
// path instead of stalling the engine.
package enhance
