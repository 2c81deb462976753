// Package empiresearch is a client for the Star Wars character search server.
//
// The server streams search results over Socket.IO: the client emits a
// "search" event carrying a query and receives one "search" event per
// result page, or a single error. This package hides the transport and
// exposes one-shot searches and the interactive prompt loop.
//
// # Basic Usage
//
// For a single search, use the Search function:
//
//	ctx := context.Background()
//	outcome, err := empiresearch.Search(ctx, "vader",
//	    empiresearch.WithServerURL("http://localhost:3000"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("done after %d pages (%s)\n", outcome.Pages, outcome.Reason)
//
// Pages are printed to stdout as they arrive, in the form
//
//	(1/3) Darth Vader - [A New Hope, The Empire Strikes Back]
//
// # Interactive Sessions
//
// Run prompts on stderr and reads one query per line from stdin:
//
//	err := empiresearch.Run(ctx, empiresearch.WithLogger(slog.Default()))
//	if err != nil && !errors.Is(err, empiresearch.ErrInputClosed) {
//	    log.Fatal(err)
//	}
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := empiresearch.NewLogger(os.Stderr, slog.LevelDebug)
//	outcome, err := empiresearch.Search(ctx, "luke",
//	    empiresearch.WithLogger(logger),
//	)
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	_, err := empiresearch.Search(ctx, "leia")
//	if err != nil {
//	    if connErr, ok := errors.AsType[*empiresearch.ConnectionError](err); ok {
//	        log.Fatalf("search server unreachable at %s", connErr.URL)
//	    }
//	    if timeoutErr, ok := errors.AsType[*empiresearch.ResponseTimeoutError](err); ok {
//	        log.Fatalf("gave up after %s", timeoutErr.Timeout)
//	    }
//	    log.Fatal(err)
//	}
//
// # Responses
//
// Classify and Parse expose the response classifier on its own, for
// callers that receive payloads through their own transport.
package empiresearch
