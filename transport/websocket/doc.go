// Package websocket is the connection gateway. It upgrades HTTP requests,
// pairs each connection with a participant, frames JSON messages in and
// out, and runs the heartbeat and idle-room sweeps. Inbound frames are
// dispatched to the router synchronously from the read loop, so messages
// from one connection are always handled in arrival order.
package websocket
