package empiresearch

import (
	"os"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/config"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/response"
	"github.com/BWStearns/rusty-ws-starwars-search/internal/session"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures the behavior of the search client.
type Options = config.Options

// Settings is the file and environment configuration of the CLI.
type Settings = config.Settings

// LoadSettings reads the YAML file named by EMPIRE_SEARCH_CONFIG, if any,
// and applies the EMPIRE_SEARCH_* environment overrides on top.
func LoadSettings() (*Settings, error) {
	return config.LoadSettings(os.Getenv)
}

// ===== Responses =====

// Response is a classified search response.
type Response = response.Response

// SearchResultPage is one page of results for a matched character.
type SearchResultPage = response.SearchResultPage

// SearchError is an application-level error reported by the server.
type SearchError = response.SearchError

// Malformed wraps a payload that could not be parsed.
type Malformed = response.Malformed

// ===== Sessions =====

// Outcome summarizes a completed search session.
type Outcome = session.Outcome

// Reason describes why a search session completed.
type Reason = session.Reason

const (
	// ReasonLastPage means the final page of the result set arrived.
	ReasonLastPage = session.ReasonLastPage
	// ReasonSearchError means the server reported an application-level error.
	ReasonSearchError = session.ReasonSearchError
	// ReasonMalformed means a payload could not be parsed.
	ReasonMalformed = session.ReasonMalformed
	// ReasonUnexpectedPayload means a binary payload arrived.
	ReasonUnexpectedPayload = session.ReasonUnexpectedPayload
)

// ===== Transport Events =====

// Payload is the body of an inbound event.
type Payload = config.Payload

// PayloadKind distinguishes text from binary payloads.
type PayloadKind = config.PayloadKind

const (
	// PayloadText is a textual payload.
	PayloadText = config.PayloadText
	// PayloadBinary is a binary attachment.
	PayloadBinary = config.PayloadBinary
)

// EventHandler receives the payloads of one event.
type EventHandler = config.EventHandler

// EventHandlers maps event names to handlers.
type EventHandlers = config.EventHandlers

const (
	// SearchEvent carries queries out and responses back.
	SearchEvent = config.SearchEvent
	// ErrorEvent reports transport-level errors.
	ErrorEvent = config.ErrorEvent
)

// TextPayload returns a text payload.
func TextPayload(text string) Payload {
	return config.TextPayload(text)
}

// BinaryPayload returns a binary payload.
func BinaryPayload(data []byte) Payload {
	return config.BinaryPayload(data)
}
