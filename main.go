package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lukehollenback/cbpro/cli"
)

func main() {
	//
	// Register a kill signal handler with the operating system so that long-running commands can
	// gracefully shut down their services.
	//
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	//
	// NOTE ~> Cobra has already reported any error by the time Execute returns.
	//
	err := cli.Execute(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
