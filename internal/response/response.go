package response

import (
	"fmt"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/errors"
)

// Response represents one classified search payload.
// Use a type switch to determine the concrete type: *SearchResultPage,
// *SearchError or *Malformed.
type Response interface {
	ResponseType() string
}

// Compile-time verification that all response types implement Response.
var (
	_ Response = (*SearchResultPage)(nil)
	_ Response = (*SearchError)(nil)
	_ Response = (*Malformed)(nil)
)

// SearchResultPage is page Page of ResultCount pages for the entity Name.
type SearchResultPage struct {
	// Films is a human-readable, comma-separated listing.
	Films       string `json:"films"`
	Name        string `json:"name"`
	Page        uint64 `json:"page"`
	ResultCount uint64 `json:"resultCount"`
}

// ResponseType implements Response.
func (p *SearchResultPage) ResponseType() string { return "page" }

// IsLastPage reports whether no further pages follow this one.
func (p *SearchResultPage) IsLastPage() bool {
	return p.Page >= p.ResultCount
}

// String renders the page as a progress line.
func (p *SearchResultPage) String() string {
	return fmt.Sprintf("(%d/%d) %s - [%s]", p.Page, p.ResultCount, p.Name, p.Films)
}

// SearchError is an application-level error reported by the server, such as
// an empty result set. Page and ResultCount carry no meaning (usually -1).
type SearchError struct {
	Message     string `json:"error"`
	Page        int64  `json:"page"`
	ResultCount int64  `json:"resultCount"`
}

// ResponseType implements Response.
func (e *SearchError) ResponseType() string { return "error" }

func (e *SearchError) String() string {
	return e.Message
}

// Malformed is a payload that could not be parsed into either shape.
type Malformed struct {
	Err *errors.MessageParseError
}

// ResponseType implements Response.
func (m *Malformed) ResponseType() string { return "malformed" }

func (m *Malformed) String() string {
	return fmt.Sprintf("Error parsing response: %v", m.Err)
}
