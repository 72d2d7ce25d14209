// Package router dispatches inbound protocol messages to their handlers.
//
// Each message runs through the sender's rate limiter, is parsed, and is
// dispatched by type. Handlers validate payloads, mutate registry or
// participant state, and fan results out through the room broadcast
// primitive. High-frequency best-effort messages (transform updates and
// anything requiring membership sent by a non-member) are dropped
// silently rather than answered with errors.
package router
