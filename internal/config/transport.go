// Package config provides configuration types for the empire search client.
package config

import "context"

// Event names exchanged with the search server.
const (
	// SearchEvent carries queries outbound and result pages inbound.
	SearchEvent = "search"
	// ErrorEvent carries transport-level diagnostics inbound.
	ErrorEvent = "error"
)

// PayloadKind distinguishes text payloads from binary attachments.
type PayloadKind int

const (
	// PayloadText is a payload delivered as text.
	PayloadText PayloadKind = iota
	// PayloadBinary is a payload delivered as raw bytes.
	PayloadBinary
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Payload is the data carried by one inbound event.
type Payload struct {
	Kind   PayloadKind
	Text   string
	Binary []byte
}

// TextPayload returns a text payload.
func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Text: text}
}

// BinaryPayload returns a binary payload.
func BinaryPayload(data []byte) Payload {
	return Payload{Kind: PayloadBinary, Binary: data}
}

// EventHandler receives one inbound event payload.
// Handlers are invoked from the transport's reader goroutine, one at a time,
// in the order the server sent the events.
type EventHandler func(Payload)

// EventHandlers maps inbound event names to their handlers.
type EventHandlers map[string]EventHandler

// Transport defines the interface for real-time communication with the search server.
// Implement this to provide custom transports for testing or alternative
// protocols.
//
// The default implementation is the websocket client in internal/socket.
// Transports are single-use: one Connect, any number of Emit calls, one
// Disconnect.
type Transport interface {
	// Connect establishes the connection and starts delivering inbound events
	// to the registered handlers.
	Connect(ctx context.Context, handlers EventHandlers) error

	// Emit sends one event carrying data, which is encoded as JSON.
	// This method must be safe for concurrent use.
	Emit(ctx context.Context, event string, data any) error

	// Disconnect closes the connection and waits until no handler can be
	// invoked anymore. It's safe to call Disconnect multiple times.
	Disconnect() error

	// Done returns a channel that is closed when the connection terminates,
	// whether by Disconnect or by the server going away.
	Done() <-chan struct{}

	// IsConnected returns true if the transport is ready for communication.
	IsConnected() bool
}

// TransportFactory builds a fresh Transport for one search session.
type TransportFactory func(opts *Options) Transport
