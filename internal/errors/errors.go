package errors

import (
	"errors"
	"fmt"
	"time"
)

// SearchClientError is the base interface for all search client errors.
type SearchClientError interface {
	error
	IsSearchClientError() bool
}

// Compile-time verification that all error types implement SearchClientError.
var (
	_ SearchClientError = (*ConnectionError)(nil)
	_ SearchClientError = (*SendError)(nil)
	_ SearchClientError = (*MessageParseError)(nil)
	_ SearchClientError = (*ResponseTimeoutError)(nil)
	_ SearchClientError = (*InputError)(nil)
	_ SearchClientError = (*ProtocolError)(nil)
	_ SearchClientError = (*NamespaceError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrInputClosed indicates standard input reached end of file.
	ErrInputClosed = errors.New("input closed")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrTransportClosed indicates the transport has been disconnected and cannot be reused.
	ErrTransportClosed = errors.New("transport closed: transports are single-use, create a new one per session")

	// ErrConnectionLost indicates the server went away before the session completed.
	ErrConnectionLost = errors.New("connection lost")
)

// ParseErrorKind classifies why a response payload could not be parsed.
type ParseErrorKind string

const (
	// ParseErrorIncomplete means the input ended before a complete JSON value was read.
	ParseErrorIncomplete ParseErrorKind = "incomplete input"
	// ParseErrorSyntax means the input is not valid JSON.
	ParseErrorSyntax ParseErrorKind = "syntax"
	// ParseErrorSchema means the JSON value does not have the expected shape.
	ParseErrorSchema ParseErrorKind = "schema"
)

// ConnectionError indicates failure to connect to the search server, or loss
// of an established connection.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if errors.Is(e.Err, ErrConnectionLost) {
		return fmt.Sprintf("connection to %s lost: %v", e.URL, e.Err)
	}

	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsSearchClientError implements SearchClientError.
func (e *ConnectionError) IsSearchClientError() bool { return true }

// SendError indicates an outbound event could not be written.
type SendError struct {
	Event string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to emit %q event: %v", e.Event, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsSearchClientError implements SearchClientError.
func (e *SendError) IsSearchClientError() bool { return true }

// MessageParseError indicates a response payload could not be parsed.
// RawData preserves the payload that failed.
type MessageParseError struct {
	Kind    ParseErrorKind
	RawData string
	Err     error
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse response (%s): %v", e.Kind, e.Err)
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// IsIncomplete reports whether the payload was truncated.
func (e *MessageParseError) IsIncomplete() bool {
	return e.Kind == ParseErrorIncomplete
}

// IsSearchClientError implements SearchClientError.
func (e *MessageParseError) IsSearchClientError() bool { return true }

// ResponseTimeoutError indicates no terminal response arrived in time.
type ResponseTimeoutError struct {
	Timeout time.Duration
	Pages   int
}

func (e *ResponseTimeoutError) Error() string {
	return fmt.Sprintf("no terminal response within %s (%d pages received)", e.Timeout, e.Pages)
}

// IsSearchClientError implements SearchClientError.
func (e *ResponseTimeoutError) IsSearchClientError() bool { return true }

// InputError indicates the query could not be read.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to read query: %v", e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsSearchClientError implements SearchClientError.
func (e *InputError) IsSearchClientError() bool { return true }

// ProtocolError indicates a frame that is not a valid Engine.IO or Socket.IO packet.
type ProtocolError struct {
	Packet string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid packet %q: %v", e.Packet, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsSearchClientError implements SearchClientError.
func (e *ProtocolError) IsSearchClientError() bool { return true }

// NamespaceError indicates the server refused the namespace connection.
type NamespaceError struct {
	Namespace string
	Message   string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("namespace %s rejected connection: %s", e.Namespace, e.Message)
}

// IsSearchClientError implements SearchClientError.
func (e *NamespaceError) IsSearchClientError() bool { return true }
