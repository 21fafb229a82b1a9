package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/sdpower/ccpet-go/internal/autosync"
	"github.com/sdpower/ccpet-go/internal/config"
	"github.com/spf13/cobra"
)

func newAutoSyncService() *autosync.Service {
	dir := config.Dir()
	return autosync.NewService(
		autosync.NewFileLockStore(dir),
		&autosync.ProcessLauncher{},
		autosync.NewLog(dir),
	)
}

func NewAutoSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autosync",
		Short: "Manage automatic sync settings and status",
		Long:  `Check auto sync status and manage auto sync settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showAutoSyncStatus()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show auto sync status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showAutoSyncStatus()
			},
		},
		&cobra.Command{
			Use:   "enable",
			Short: "Enable auto sync",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setAutoSync(true); err != nil {
					return err
				}
				fmt.Println(color.GreenString("✓"), "Auto sync enabled.")
				fmt.Println("Auto sync will check and run on your next Claude Code interaction.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Disable auto sync",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setAutoSync(false); err != nil {
					return err
				}
				fmt.Println(color.GreenString("✓"), "Auto sync disabled.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "interval <minutes>",
			Short: "Set sync interval in minutes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				minutes, err := strconv.Atoi(args[0])
				if err != nil || minutes <= 0 {
					return fmt.Errorf("invalid interval %q, specify a positive number of minutes", args[0])
				}
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				cfg.Supabase.SyncInterval = minutes
				if err := config.Save(cfg); err != nil {
					return err
				}
				fmt.Printf("%s Auto sync interval set to %d minutes (%.1f hours).\n",
					color.GreenString("✓"), minutes, float64(minutes)/60)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset sync status (clear in-progress flag)",
			RunE: func(cmd *cobra.Command, args []string) error {
				newAutoSyncService().Reset()
				fmt.Println(color.GreenString("✓"), "Auto sync status has been reset.")
				return nil
			},
		},
	)

	return cmd
}

func setAutoSync(enabled bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Supabase.AutoSync = enabled
	return config.Save(cfg)
}

func showAutoSyncStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc := newAutoSyncService()

	yes := color.GreenString
	no := color.RedString

	fmt.Println("Auto Sync Status")
	fmt.Println()

	enabledMark := no("✗ Disabled")
	if cfg.Supabase.AutoSync {
		enabledMark = yes("✓ Enabled")
	}
	configuredMark := no("✗ Not configured")
	configured := cfg.Supabase.URL != "" && cfg.Supabase.APIKey != ""
	if configured {
		configuredMark = yes("✓ Configured")
	}

	interval := cfg.Supabase.SyncInterval
	fmt.Printf("Auto Sync: %s\n", enabledMark)
	fmt.Printf("Sync Interval: %d minutes (%.1f hours)\n", interval, float64(interval)/60)
	fmt.Printf("Supabase Config: %s\n", configuredMark)

	if !configured {
		fmt.Println()
		fmt.Println("Supabase configuration incomplete. Auto sync will not work.")
		fmt.Println("Configure with:")
		fmt.Println("  ccpet config: set supabase.url and supabase.api_key in", config.Dir()+"/config.toml")
		return nil
	}

	inProgress := svc.InProgress()
	stateMark := yes("✓ Ready")
	if inProgress {
		stateMark = color.YellowString("⟳ In Progress")
	}
	fmt.Printf("\nSync Status: %s\n", stateMark)

	lastSync, ok := svc.LastSyncTime()
	if !ok {
		fmt.Println("Last Sync: Never")
		if cfg.Supabase.AutoSync {
			fmt.Println("\nFirst auto sync will trigger on your next Claude Code interaction.")
		}
		return nil
	}

	since := time.Since(lastSync)
	due := since >= time.Duration(interval)*time.Minute
	fmt.Printf("Last Sync: %s (%.1f hours ago)\n", lastSync.Format("2006-01-02 15:04:05"), since.Hours())
	if due {
		fmt.Printf("Next Sync: %s\n", color.YellowString("Due now"))
		if cfg.Supabase.AutoSync {
			fmt.Println("\nAuto sync is due. It will trigger on your next Claude Code interaction.")
		}
	} else {
		fmt.Printf("Next Sync: %s\n", yes("Scheduled"))
	}

	if !cfg.Supabase.AutoSync {
		fmt.Println("\nEnable auto sync with: ccpet autosync enable")
	}
	return nil
}
