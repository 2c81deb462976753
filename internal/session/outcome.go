package session

import (
	stderrors "errors"
	"sync"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
)

// Reason describes why a search session completed.
type Reason int

const (
	// ReasonLastPage means the final page of the result set arrived.
	ReasonLastPage Reason = iota + 1
	// ReasonSearchError means the server reported an application-level error.
	ReasonSearchError
	// ReasonMalformed means a payload could not be parsed.
	ReasonMalformed
	// ReasonUnexpectedPayload means a payload arrived in an unsupported form.
	ReasonUnexpectedPayload
)

func (r Reason) String() string {
	switch r {
	case ReasonLastPage:
		return "last_page"
	case ReasonSearchError:
		return "search_error"
	case ReasonMalformed:
		return "malformed"
	case ReasonUnexpectedPayload:
		return "unexpected_payload"
	default:
		return "unknown"
	}
}

// Outcome summarizes a completed search session.
type Outcome struct {
	Reason Reason
	// Pages is the number of result pages printed.
	Pages int
}

// completion is a one-shot signal from the event handler to the session.
// Only the first fire is delivered.
type completion struct {
	ch   chan Outcome
	once sync.Once
}

func newCompletion() *completion {
	return &completion{ch: make(chan Outcome, 1)}
}

// fire delivers o unless the signal already fired. It never blocks.
func (c *completion) fire(o Outcome) bool {
	fired := false

	c.once.Do(func() {
		c.ch <- o
		fired = true
	})

	return fired
}

// wait returns the channel the outcome is delivered on.
func (c *completion) wait() <-chan Outcome {
	return c.ch
}

// IsFatal reports whether err must end the search loop.
//
// Input failures always end it. Connect and send failures end it unless
// recoverTransport is set. Lost connections, timeouts and response problems
// only end the session they occurred in.
func IsFatal(err error, recoverTransport bool) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, errors.ErrConnectionLost) {
		return false
	}

	if _, ok := stderrors.AsType[*errors.ResponseTimeoutError](err); ok {
		return false
	}

	if _, ok := stderrors.AsType[*errors.MessageParseError](err); ok {
		return false
	}

	if _, ok := stderrors.AsType[*errors.ConnectionError](err); ok {
		return !recoverTransport
	}

	if _, ok := stderrors.AsType[*errors.SendError](err); ok {
		return !recoverTransport
	}

	return true
}
