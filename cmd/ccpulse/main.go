package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "ccpulse",
		Short: "Local token usage monitor for coding assistant sessions",
		Long:  `A CLI tool that reads local JSONL usage logs, reconstructs 5-hour billing sessions and reports token spend, burn rate and cost projections.`,
	}

	rootCmd.AddCommand(
		commands.NewDailyCommand(),
		commands.NewMonthlyCommand(),
		commands.NewSessionCommand(),
		commands.NewBlocksCommand(),
		commands.NewMonitorCommand(),
		commands.NewSettingsCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
