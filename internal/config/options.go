package config

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Defaults for a local search server.
const (
	DefaultServerURL      = "http://localhost:3000"
	DefaultSocketPath     = "/socket.io/"
	DefaultNamespace      = "/"
	DefaultPrompt         = "empire search > "
	DefaultConnectTimeout = 10 * time.Second
)

// Options configures the behavior of the search client.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ServerURL is the base URL of the search server.
	// http, https, ws and wss schemes are accepted.
	ServerURL string

	// SocketPath is the HTTP path the server mounts its socket endpoint on.
	SocketPath string

	// Namespace is the socket namespace to join.
	Namespace string

	// Prompt is written to Stderr before each query is read.
	Prompt string

	// Stdin supplies queries, one per line.
	Stdin io.Reader

	// Stdout receives result pages and diagnostics.
	Stdout io.Writer

	// Stderr receives the prompt and transport errors.
	Stderr io.Writer

	// ConnectTimeout bounds dialing and the connection handshake.
	ConnectTimeout time.Duration

	// ResponseTimeout bounds the wait for a terminal response.
	// Zero waits indefinitely.
	ResponseTimeout time.Duration

	// RecoverTransportErrors turns connect and send failures into
	// session-local failures instead of ending the loop.
	RecoverTransportErrors bool

	// NewTransport builds the transport for each session.
	// If nil, the websocket transport is used.
	NewTransport TransportFactory
}

// WithDefaults returns a copy of the options with empty fields filled in.
func (o *Options) WithDefaults() *Options {
	out := &Options{}
	if o != nil {
		*out = *o
	}

	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if out.ServerURL == "" {
		out.ServerURL = DefaultServerURL
	}

	if out.SocketPath == "" {
		out.SocketPath = DefaultSocketPath
	}

	if out.Namespace == "" {
		out.Namespace = DefaultNamespace
	}

	if out.Prompt == "" {
		out.Prompt = DefaultPrompt
	}

	if out.Stdin == nil {
		out.Stdin = os.Stdin
	}

	if out.Stdout == nil {
		out.Stdout = os.Stdout
	}

	if out.Stderr == nil {
		out.Stderr = os.Stderr
	}

	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}

	return out
}
