// Package player holds per-connection participant state: display name,
// vehicle configuration, transform and telemetry, liveness timestamps,
// and the fixed-window message rate limiter.
//
// A Player never mutates its own room membership; that belongs to the
// room registry. The transport is abstracted behind the Conn interface so
// the package stays free of WebSocket details and unit-testable with a
// fake connection.
package player
