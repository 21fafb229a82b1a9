package commands

import (
	"fmt"
	"os"

	"github.com/sdpower/ccpet-go/internal/config"
	"github.com/sdpower/ccpet-go/internal/pet"
	"github.com/sdpower/ccpet-go/internal/supabase"
	"github.com/sdpower/ccpet-go/internal/syncer"
	"github.com/sdpower/ccpet-go/internal/usage"
	"github.com/spf13/cobra"
)

func NewSyncCommand() *cobra.Command {
	var (
		startDate      string
		endDate        string
		dryRun         bool
		verbose        bool
		supabaseURL    string
		supabaseAPIKey string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync pet data and token usage to Supabase",
		Long:  `Sync the pet record and daily token usage to the Supabase backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if startDate != "" && !isValidDate(startDate) {
				return fmt.Errorf("invalid start date format, use YYYY-MM-DD")
			}
			if endDate != "" && !isValidDate(endDate) {
				return fmt.Errorf("invalid end date format, use YYYY-MM-DD")
			}

			cfg := resolveSupabaseConfig(supabaseURL, supabaseAPIKey)
			if !cfg.Configured() {
				return fmt.Errorf("supabase configuration missing: set SUPABASE_URL and SUPABASE_ANON_KEY, or use --supabase-url and --supabase-api-key")
			}

			runner := &syncer.Runner{
				Reader: usage.NewReader(),
				Client: supabase.NewClient(cfg),
				Pets:   pet.NewStorage(config.Dir()),
				Out:    os.Stdout,
			}

			result, err := runner.Run(cmd.Context(), syncer.Options{
				StartDate: startDate,
				EndDate:   endDate,
				DryRun:    dryRun,
				Verbose:   verbose,
			})
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			if !result.Success {
				fmt.Fprintf(os.Stderr, "Sync completed with errors: %s\n", result.Message)
				for _, e := range result.Status.Errors {
					fmt.Fprintf(os.Stderr, "  %s\n", e)
				}
				return fmt.Errorf("%d of %d records failed to sync", result.Status.Failed, result.Status.Total)
			}

			fmt.Println(result.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date for token usage sync (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date for token usage sync (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview sync without making changes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	cmd.Flags().StringVar(&supabaseURL, "supabase-url", "", "Supabase project URL")
	cmd.Flags().StringVar(&supabaseAPIKey, "supabase-api-key", "", "Supabase anonymous API key")

	return cmd
}
