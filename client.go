package empiresearch

import (
	"context"

	"github.com/BWStearns/rusty-ws-starwars-search/internal/session"
)

// Client runs search sessions against one server.
//
// Each Search opens a fresh transport, emits the query, prints every
// response the server streams back and disconnects once the session
// completes. Run repeats that for every line of input.
//
// Example usage:
//
//	client := empiresearch.NewClient(
//	    empiresearch.WithServerURL("http://localhost:3000"),
//	    empiresearch.WithResponseTimeout(30*time.Second),
//	)
//
//	outcome, err := client.Search(ctx, "vader")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(outcome.Reason, outcome.Pages)
type Client interface {
	// Run prompts for queries until input ends or a fatal error occurs.
	// Returns ErrInputClosed when input ends cleanly.
	Run(ctx context.Context) error

	// Search runs one search session for query and returns how it ended.
	// Result pages are printed to the configured stdout as they arrive.
	Search(ctx context.Context, query string) (*Outcome, error)

	// ReadQuery prints the prompt and reads one trimmed line of input.
	ReadQuery() (string, error)
}

// Compile-time verification that the session runner implements Client.
var _ Client = (*session.Runner)(nil)

// NewClient creates a client with the given options.
func NewClient(opts ...Option) Client {
	return session.New(applyOptions(opts))
}
