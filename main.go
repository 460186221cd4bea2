package main

import (
	"context"
	"os"
	"os/signal"

	"schemasync/cmd"
)

func main() {
	// Interrupts take effect at statement boundaries; the executor
	// checks the context between statements.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd.ExecuteContext(ctx)
}
