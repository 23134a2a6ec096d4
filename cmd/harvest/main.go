// Package main is the entry point for the harvest CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/runoshun/issue-harvest/internal/app"
	"github.com/runoshun/issue-harvest/internal/cli"
	"github.com/runoshun/issue-harvest/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Interrupts stop the run at the next page boundary or sleep
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create dependency injection container; ports are bound after flag parsing
	container := app.New(domain.ConfigFileName, os.Stderr)
	defer func() { _ = container.Close() }()

	// Create and execute root command
	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.ExecuteContext(ctx)
}
