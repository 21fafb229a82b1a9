package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sdpower/ccpet-go/internal/commands"
	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	rootCmd := &cobra.Command{
		Use:   "ccpet",
		Short: "Claude Code pet companion",
		Long:  `A CLI tool that syncs Claude Code usage to a pet leaderboard backend.`,
	}

	rootCmd.AddCommand(
		commands.NewSyncCommand(),
		commands.NewLeaderboardCommand(),
		commands.NewAutoSyncCommand(),
		commands.NewCheckCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
