// Command empire-search is an interactive client for the Star Wars
// character search server.
//
// It reads one query per line from stdin and prints every result page the
// server streams back. Configuration comes from the YAML file named by
// EMPIRE_SEARCH_CONFIG and the EMPIRE_SEARCH_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	empiresearch "github.com/BWStearns/rusty-ws-starwars-search"
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	settings, err := empiresearch.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	level, err := settings.Level()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	opts, err := settings.Options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	logger := empiresearch.NewLogger(os.Stderr, level)

	fmt.Println("Press Ctrl+C to exit")

	err = empiresearch.Run(ctx,
		empiresearch.WithOptions(opts),
		empiresearch.WithLogger(logger),
	)

	switch {
	case err == nil, errors.Is(err, empiresearch.ErrInputClosed):
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}
}
