package session

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/config"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/response"
)

// responseHandler prints the events of one session and signals its
// completion. Its fields are only touched from the transport's reader
// goroutine until the transport is disconnected.
type responseHandler struct {
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
	done   *completion

	pages    int
	finished bool
}

func newResponseHandler(log *slog.Logger, stdout, stderr io.Writer, done *completion) *responseHandler {
	return &responseHandler{
		log:    log,
		stdout: stdout,
		stderr: stderr,
		done:   done,
	}
}

// handlers returns the two event handlers registered for a session.
func (h *responseHandler) handlers() config.EventHandlers {
	return config.EventHandlers{
		config.SearchEvent: h.handleSearch,
		config.ErrorEvent:  h.handleError,
	}
}

// handleSearch classifies and prints one search payload.
func (h *responseHandler) handleSearch(p config.Payload) {
	if h.finished {
		h.log.Debug("Dropping payload after completion", "payload_kind", p.Kind.String())

		return
	}

	if p.Kind != config.PayloadText {
		h.log.Warn("Unexpected payload", "payload_kind", p.Kind.String(), "size", len(p.Binary))
		fmt.Fprintf(h.stdout, "Unexpectedly got bytes: %v\n", p.Binary)
		h.complete(ReasonUnexpectedPayload)

		return
	}

	switch r := response.Classify(p.Text).(type) {
	case *response.SearchResultPage:
		h.pages++
		fmt.Fprintln(h.stdout, r.String())

		if r.IsLastPage() {
			h.complete(ReasonLastPage)
		}
	case *response.SearchError:
		fmt.Fprintln(h.stdout, r.Message)
		h.complete(ReasonSearchError)
	case *response.Malformed:
		h.log.Warn("Failed to parse response", "error", r.Err, "raw", r.Err.RawData)
		fmt.Fprintln(h.stdout, r.String())
		h.complete(ReasonMalformed)
	}
}

// handleError logs a transport-level error. It does not end the session.
func (h *responseHandler) handleError(p config.Payload) {
	text := p.Text
	if p.Kind != config.PayloadText {
		text = fmt.Sprintf("%v", p.Binary)
	}

	h.log.Warn("Transport error event", "error", text)
	fmt.Fprintf(h.stderr, "Error: %s\n", text)
}

func (h *responseHandler) complete(reason Reason) {
	h.finished = true
	h.done.fire(Outcome{Reason: reason, Pages: h.pages})
}
