package empiresearch

import (
	"context"
	"log/slog"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/response"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/session"
)

// getLoggerWithComponent returns a logger with the component field set.
func getLoggerWithComponent(options *Options, component string) *slog.Logger {
	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return log.With("component", component)
}

// Run reads queries from stdin and runs one search session per line until
// input ends, ctx is canceled or a fatal error occurs.
//
// A clean end of input returns ErrInputClosed. Recoverable session errors
// are printed to stderr and the loop continues.
//
// Example usage:
//
//	err := empiresearch.Run(ctx,
//	    empiresearch.WithServerURL("http://localhost:3000"),
//	    empiresearch.WithLogger(logger),
//	)
//	if err != nil && !errors.Is(err, empiresearch.ErrInputClosed) {
//	    log.Fatal(err)
//	}
func Run(ctx context.Context, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)
	log := getLoggerWithComponent(options, "search")

	log.Debug("Starting interactive search", "server_url", options.ServerURL)

	return session.New(options).Run(ctx)
}

// Search runs a single search session for query.
//
// Result pages are printed to stdout as they arrive. The returned Outcome
// says which terminal response ended the session.
func Search(ctx context.Context, query string, opts ...Option) (*Outcome, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return session.New(applyOptions(opts)).Search(ctx, query)
}

// Classify turns a raw search payload into a SearchResultPage, a
// SearchError or a Malformed response. It never fails.
func Classify(raw string) Response {
	return response.Classify(raw)
}

// Parse is like Classify but reports unparseable payloads as a
// *MessageParseError instead of wrapping them.
func Parse(raw string) (Response, error) {
	return response.Parse(raw)
}

// IsFatal reports whether err ends the interactive loop under the given
// recovery setting.
func IsFatal(err error, recoverTransportErrors bool) bool {
	return session.IsFatal(err, recoverTransportErrors)
}
