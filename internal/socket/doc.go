// Package socket provides the websocket transport for the search server.
//
// This package implements the Transport interface by speaking Socket.IO over
// a single websocket connection. It handles the Engine.IO handshake,
// namespace connect, heartbeats and event framing. Inbound events are
// dispatched to handlers from one reader goroutine, in arrival order.
//
// Reconnection and the HTTP long-polling transport are not implemented: a
// Client is single-use, and callers open a new one per search session.
package socket
