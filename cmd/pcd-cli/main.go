package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yndnr/pcd-go/internal/cli/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.App().RunContext(ctx, os.Args); err != nil {
		command.PrintError("%v", err)
		stop()
		os.Exit(1)
	}
}
