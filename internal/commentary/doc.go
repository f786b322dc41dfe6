// Package commentary turns game events into broadcastable text.
//
// The fast path picks a template for the event type at random and
// substitutes payload fields; it never blocks and never fails. The prompt
// builder prepares the request for the second-tier generative enhancement.
package commentary
