package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Cancellation already surfaced through the partial manifest; the
		// exit code is enough.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "reelsmith: %v\n", err)
		}
		os.Exit(1)
	}
}
