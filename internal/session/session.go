package session

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/config"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/socket"
)

// searchRequest is the body of the outbound search event.
type searchRequest struct {
	Query string `json:"query"`
}

// flusher is implemented by buffered prompt writers.
type flusher interface {
	Flush() error
}

// Runner drives the interactive search loop. Each query gets its own
// transport, and the next prompt is only shown once that session is done.
type Runner struct {
	log   *slog.Logger
	opts  *config.Options
	input *bufio.Reader
}

// New creates a Runner. Unset options take their defaults and a nil
// transport factory selects the websocket transport.
func New(opts *config.Options) *Runner {
	opts = opts.WithDefaults()
	if opts.NewTransport == nil {
		opts.NewTransport = socket.Factory
	}

	return &Runner{
		log:   opts.Logger.With("component", "session"),
		opts:  opts,
		input: bufio.NewReader(opts.Stdin),
	}
}

// Run prompts for queries until input ends or a fatal error occurs.
//
// It returns errors.ErrInputClosed when input ends, and the context error
// when ctx is canceled. Recoverable session errors are reported on stderr
// and the loop continues with the next prompt.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting search loop", "server_url", r.opts.ServerURL)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		query, err := r.ReadQuery()
		if err != nil {
			if stderrors.Is(err, errors.ErrInputClosed) {
				r.log.Info("Input closed, stopping search loop")
			}

			return err
		}

		if _, err := r.Search(ctx, query); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if IsFatal(err, r.opts.RecoverTransportErrors) {
				r.log.Error("Search session failed", "error", err)

				return err
			}

			r.log.Warn("Search session failed, continuing", "error", err)
			fmt.Fprintf(r.opts.Stderr, "Error: %v\n", err)
		}
	}
}

// ReadQuery prints the prompt and reads one trimmed line of input.
// An empty line yields an empty query.
func (r *Runner) ReadQuery() (string, error) {
	fmt.Fprint(r.opts.Stderr, r.opts.Prompt)

	if f, ok := r.opts.Stderr.(flusher); ok {
		if err := f.Flush(); err != nil {
			r.log.Debug("Failed to flush prompt", "error", err)
		}
	}

	line, err := r.input.ReadString('\n')
	if err != nil {
		if !stderrors.Is(err, io.EOF) {
			return "", &errors.InputError{Err: err}
		}

		// A final line without a newline is still a query.
		if line == "" {
			return "", errors.ErrInputClosed
		}
	}

	return strings.TrimSpace(line), nil
}

// Search runs one search session for query. It connects a fresh transport,
// emits the query, prints every response until the session completes and
// then disconnects.
func (r *Runner) Search(ctx context.Context, query string) (*Outcome, error) {
	sessionID := ulid.Make().String()
	log := r.log.With("session_id", sessionID)

	done := newCompletion()
	handler := newResponseHandler(log, r.opts.Stdout, r.opts.Stderr, done)
	transport := r.opts.NewTransport(r.opts)

	log.Debug("Connecting", "server_url", r.opts.ServerURL, "namespace", r.opts.Namespace)

	if err := transport.Connect(ctx, handler.handlers()); err != nil {
		return nil, r.connectionError(err)
	}

	if err := transport.Emit(ctx, config.SearchEvent, searchRequest{Query: query}); err != nil {
		r.disconnect(log, transport)

		return nil, &errors.SendError{Event: config.SearchEvent, Err: err}
	}

	log.Debug("Query sent, awaiting responses", "query", query)

	outcome, err := r.await(ctx, done, transport)

	// After Disconnect returns no handler runs, so handler state is safe
	// to read below.
	r.disconnect(log, transport)

	if err != nil {
		if timeoutErr, ok := stderrors.AsType[*errors.ResponseTimeoutError](err); ok {
			timeoutErr.Pages = handler.pages
		}

		return nil, err
	}

	log.Info("Search session completed", "reason", outcome.Reason.String(), "pages", outcome.Pages)

	return outcome, nil
}

// await blocks until the session completes, the transport goes away, the
// response timeout expires or ctx is canceled.
func (r *Runner) await(ctx context.Context, done *completion, transport config.Transport) (*Outcome, error) {
	var timeout <-chan time.Time

	if r.opts.ResponseTimeout > 0 {
		timer := time.NewTimer(r.opts.ResponseTimeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case o := <-done.wait():
		return &o, nil
	case <-transport.Done():
		// The final response may have been dispatched right before the
		// connection ended.
		select {
		case o := <-done.wait():
			return &o, nil
		default:
		}

		return nil, &errors.ConnectionError{URL: r.opts.ServerURL, Err: errors.ErrConnectionLost}
	case <-timeout:
		return nil, &errors.ResponseTimeoutError{Timeout: r.opts.ResponseTimeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) connectionError(err error) error {
	if connErr, ok := stderrors.AsType[*errors.ConnectionError](err); ok {
		return connErr
	}

	return &errors.ConnectionError{URL: r.opts.ServerURL, Err: err}
}

func (r *Runner) disconnect(log *slog.Logger, transport config.Transport) {
	if err := transport.Disconnect(); err != nil {
		log.Warn("Failed to disconnect", "error", err)
	}
}
