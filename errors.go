package empiresearch

import "github.com/BWStearns/rusty-ws-starwars-search/internal/errors"

// Re-export error types from internal package

// SearchClientError is the base interface for all client errors.
type SearchClientError = errors.SearchClientError

// ConnectionError indicates failure to connect to the search server,
// or a connection that was lost mid-session.
type ConnectionError = errors.ConnectionError

// SendError indicates the search event could not be emitted.
type SendError = errors.SendError

// MessageParseError indicates a search response could not be parsed.
type MessageParseError = errors.MessageParseError

// ParseErrorKind classifies a MessageParseError.
type ParseErrorKind = errors.ParseErrorKind

const (
	// ParseErrorIncomplete means the input ended early.
	ParseErrorIncomplete = errors.ParseErrorIncomplete
	// ParseErrorSyntax means the input is not valid JSON.
	ParseErrorSyntax = errors.ParseErrorSyntax
	// ParseErrorSchema means the JSON does not have a known response shape.
	ParseErrorSchema = errors.ParseErrorSchema
)

// ResponseTimeoutError indicates no terminal response arrived in time.
type ResponseTimeoutError = errors.ResponseTimeoutError

// InputError indicates a query could not be read.
type InputError = errors.InputError

// ProtocolError indicates the server sent a packet that could not be decoded.
type ProtocolError = errors.ProtocolError

// NamespaceError indicates the server refused the namespace connection.
type NamespaceError = errors.NamespaceError

// Re-export sentinel errors from internal package.
var (
	// ErrInputClosed indicates input ended. Run returns it on a clean exit.
	ErrInputClosed = errors.ErrInputClosed

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrTransportClosed indicates the transport was already used.
	ErrTransportClosed = errors.ErrTransportClosed

	// ErrConnectionLost indicates the server went away mid-session.
	ErrConnectionLost = errors.ErrConnectionLost
)
