package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := notifyContext(context.Background())
	cfg, err := run(ctx, os.Args[1:], DefaultEnv())
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err, cfg))
		os.Exit(exitCodeFor(err))
	}
}
