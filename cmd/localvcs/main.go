// Package main is the entry point for the localvcs CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/KrolPower/LocalVCS/cmd/localvcs/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(commands.ReportError(os.Stderr, err))
	}
}
