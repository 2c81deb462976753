package empiresearch

import (
	"io"
	"log/slog"
	"time"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithOptions replaces every previously applied option with base.
// Options that follow it still apply on top. This is how settings loaded
// by LoadSettings are handed to Run.
func WithOptions(base *Options) Option {
	return func(o *Options) {
		if base != nil {
			*o = *base
		}
	}
}

// ===== Server =====

// WithServerURL sets the base URL of the search server
// (e.g., "http://localhost:3000"). http, https, ws and wss are accepted.
func WithServerURL(url string) Option {
	return func(o *Options) {
		o.ServerURL = url
	}
}

// WithSocketPath sets the path the server mounts its socket endpoint on.
// Defaults to "/socket.io/".
func WithSocketPath(path string) Option {
	return func(o *Options) {
		o.SocketPath = path
	}
}

// WithNamespace sets the socket namespace to join. Defaults to "/".
func WithNamespace(namespace string) Option {
	return func(o *Options) {
		o.Namespace = namespace
	}
}

// ===== Terminal =====

// WithPrompt overrides the prompt printed before each query.
func WithPrompt(prompt string) Option {
	return func(o *Options) {
		o.Prompt = prompt
	}
}

// WithStdin sets the reader queries are read from.
func WithStdin(r io.Reader) Option {
	return func(o *Options) {
		o.Stdin = r
	}
}

// WithStdout sets the writer result pages are printed to.
func WithStdout(w io.Writer) Option {
	return func(o *Options) {
		o.Stdout = w
	}
}

// WithStderr sets the writer for the prompt and transport errors.
func WithStderr(w io.Writer) Option {
	return func(o *Options) {
		o.Stderr = w
	}
}

// ===== Timeouts and Recovery =====

// WithConnectTimeout bounds dialing and the connection handshake.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = timeout
	}
}

// WithResponseTimeout bounds the wait for a terminal response in each
// session. Zero, the default, waits indefinitely.
func WithResponseTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ResponseTimeout = timeout
	}
}

// WithRecoverTransportErrors makes connect and send failures end only the
// current session instead of the whole loop.
func WithRecoverTransportErrors(recoverErrors bool) Option {
	return func(o *Options) {
		o.RecoverTransportErrors = recoverErrors
	}
}

// ===== Transport =====

// WithTransport injects a custom transport factory for testing or mocking.
// The factory is called once per search session and must return a new,
// unconnected transport each time.
func WithTransport(factory TransportFactory) Option {
	return func(o *Options) {
		o.NewTransport = factory
	}
}
