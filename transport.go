package empiresearch

import (
	"github.com/BWStearns/rusty-ws-starwars-search/internal/config"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/socket"
)

// Transport defines the interface for talking to the search server.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods.
//
// The default implementation speaks Socket.IO over a websocket.
// Custom transports can be injected via WithTransport.
type Transport = config.Transport

// TransportFactory builds the transport for one search session.
type TransportFactory = config.TransportFactory

// NewWebsocketTransport creates the default websocket transport.
// It is single-use: connect it once, then disconnect it.
func NewWebsocketTransport(opts ...Option) Transport {
	return socket.New(applyOptions(opts).WithDefaults())
}
