// Package main provides the entry point for the artifactgen CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vook/artifact-gen/cmd/artifactgen/commands"
	"github.com/vook/artifact-gen/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := commands.NewReportCommand()
	rootCmd.AddCommand(commands.NewVersionCommand())

	err := rootCmd.ExecuteContext(ctx)
	if err == nil || commands.IsInterrupt(err) {
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	return 1
}
