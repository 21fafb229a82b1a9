package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sdpower/ccpet-go/internal/config"
	"github.com/sdpower/ccpet-go/internal/leaderboard"
	"github.com/sdpower/ccpet-go/internal/monitor"
	"github.com/sdpower/ccpet-go/internal/pet"
	"github.com/sdpower/ccpet-go/internal/supabase"
	"github.com/sdpower/ccpet-go/internal/types"
	"github.com/spf13/cobra"
)

func NewLeaderboardCommand() *cobra.Command {
	var (
		period         string
		sortBy         string
		limit          int
		live           bool
		interval       int
		noColor        bool
		verbose        bool
		supabaseURL    string
		supabaseAPIKey string
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Display pet leaderboard rankings",
		Long:  `Display pet leaderboard rankings with token, cost and survival data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !types.ValidPeriod(period) {
				return fmt.Errorf("invalid period %q, must be one of: today, 7d, 30d, all", period)
			}
			if !types.ValidSortBy(sortBy) {
				return fmt.Errorf("invalid sort %q, must be one of: tokens, cost, survival", sortBy)
			}
			if limit < 1 || limit > 100 {
				return fmt.Errorf("invalid limit %d, must be between 1 and 100", limit)
			}

			cfg := resolveSupabaseConfig(supabaseURL, supabaseAPIKey)
			queryOpts := supabase.LeaderboardOptions{
				Period: types.Period(period),
				SortBy: types.SortBy(sortBy),
				Limit:  limit,
			}
			formatOpts := leaderboard.FormatOptions{
				Period:  types.Period(period),
				SortBy:  types.SortBy(sortBy),
				Limit:   limit,
				NoColor: noColor,
			}

			fetch := func(ctx context.Context) ([]types.LeaderboardEntry, bool, error) {
				return fetchEntries(ctx, cfg, queryOpts, verbose)
			}

			if live {
				return monitor.Start(monitor.Options{
					Fetch:    fetch,
					Format:   formatOpts,
					Interval: time.Duration(interval) * time.Second,
				})
			}

			entries, offline, err := fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("leaderboard query failed: %w", err)
			}
			formatOpts.OfflineMode = offline

			fmt.Println(leaderboard.NewFormatter().Format(entries, formatOpts))
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "today", "Time period for rankings (today, 7d, 30d, all)")
	cmd.Flags().StringVar(&sortBy, "sort", "tokens", "Sort field (tokens, cost, survival)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Limit number of results (1-100)")
	cmd.Flags().BoolVar(&live, "live", false, "Auto-refreshing leaderboard view")
	cmd.Flags().IntVar(&interval, "interval", 30, "Refresh interval for the live view in seconds")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	cmd.Flags().StringVar(&supabaseURL, "supabase-url", "", "Supabase project URL")
	cmd.Flags().StringVar(&supabaseAPIKey, "supabase-api-key", "", "Supabase anonymous API key")

	return cmd
}

// fetchEntries degrades through three tiers: the aggregate RPC, the
// client-side fallback query, and finally local on-disk data. The returned
// bool reports offline (local) mode.
func fetchEntries(ctx context.Context, cfg supabase.Config, opts supabase.LeaderboardOptions, verbose bool) ([]types.LeaderboardEntry, bool, error) {
	if cfg.Configured() {
		client := supabase.NewClient(cfg)

		entries, err := client.QueryLeaderboard(ctx, opts)
		if err == nil {
			return entries, false, nil
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Advanced leaderboard query failed, falling back to simple query: %v\n", err)
		}

		entries, err = client.QueryLeaderboardFallback(ctx, opts)
		if err == nil {
			return entries, false, nil
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Supabase connection failed, using local data: %v\n", err)
		}
	} else if verbose {
		fmt.Fprintln(os.Stderr, "Supabase configuration missing, using local data")
	}

	entries, err := leaderboard.LocalEntries(pet.NewStorage(config.Dir()), time.Now())
	if err != nil {
		return nil, true, err
	}
	return entries, true, nil
}
