package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	ctx, cancel := interruptContext(context.Background(), slog.Default())

	err := newRootCmd().ExecuteContext(ctx)

	cancel()

	if err != nil {
		if errors.Is(err, errNoState) {
			os.Exit(exitNoState)
		}

		exitOnError(err)
	}
}
