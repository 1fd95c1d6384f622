// File: cmd/blobnav/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// Explicitly import backend implementations so their init() functions register them
	_ "blobnav/internal/provider"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
