package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"randcal/internal/app"
	"randcal/internal/config"
	"randcal/internal/ics"
	appLog "randcal/internal/log"
)

// rootFlags holds CLI flag values that override the loaded config.
type rootFlags struct {
	configPath string
	days       int
	start      string
	seed       uint64
	output     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:          "randcal",
		Short:        "Generate a random weekday calendar as an .ics file",
		Long:         "randcal fills the next few weekdays with 1-4 non-overlapping meetings inside business hours, one Focus Time block per day, and writes them to an iCalendar file you can import into any calendar app.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			res, err := app.Run(cmd.Context(), cfg, app.RunOptions{Seed: flags.seed})
			if err != nil {
				appLog.Error("generation failed", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calendar file has been created at: %s\n", res.OutputPath)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to YAML config file (created with defaults if missing)")
	pf.IntVar(&flags.days, "days", 0, "Number of calendar days to cover (overrides config)")
	pf.StringVar(&flags.start, "start", "", "First day as YYYY-MM-DD (overrides config; default today)")
	pf.Uint64Var(&flags.seed, "seed", 0, "Random seed for reproducible output (0 = time-based)")
	pf.StringVarP(&flags.output, "output", "o", "", "Output .ics path (overrides config)")

	rootCmd.AddCommand(
		newWatchCmd(flags),
		newInspectCmd(),
	)

	return rootCmd
}

// loadConfig loads the config file (or defaults), applies flag overrides
// and validates the result.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			return nil, err
		}
		cfg = loaded
	}

	if flags.days != 0 {
		cfg.Days = flags.days
	}
	if flags.start != "" {
		cfg.StartDate = flags.start
	}
	if flags.output != "" {
		cfg.OutputPath = flags.output
	}

	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		return nil, err
	}

	appLog.Debug("effective config",
		"days", cfg.Days,
		"start_date", cfg.StartDate,
		"business_start", cfg.BusinessStart,
		"business_end", cfg.BusinessEnd,
		"retry_budget", cfg.RetryBudget,
		"subject_count", len(cfg.Subjects),
	)
	return cfg, nil
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the calendar on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cfg, flags.seed)
		},
	}
}

// watch regenerates the calendar on cfg.Regenerate until ctx is done. A
// failed regeneration is logged and retried at the next tick.
func watch(ctx context.Context, cfg *config.Config, seed uint64) error {
	c := cron.New()

	regenerate := func() {
		// A fixed seed still yields a fresh calendar each tick because the
		// start date moves with the clock.
		if _, err := app.Run(ctx, cfg, app.RunOptions{Seed: seed}); err != nil {
			appLog.Error("scheduled regeneration failed", err)
		}
	}

	if _, err := c.AddFunc(cfg.Regenerate, regenerate); err != nil {
		return fmt.Errorf("%w: regenerate %q: %v", config.ErrInvalidConfig, cfg.Regenerate, err)
	}

	appLog.Info("watch started", "schedule", cfg.Regenerate)
	regenerate()
	c.Start()

	<-ctx.Done()
	appLog.Info("signal received, shutting down")

	// Wait for a running regeneration to finish before exiting.
	select {
	case <-c.Stop().Done():
	case <-time.After(30 * time.Second):
	}
	return nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.ics>",
		Short: "List the events in a generated calendar file, grouped by day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			events, err := ics.ParseEvents(body)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			lastDay := ""
			for _, ev := range events {
				day := ev.Start.Format("Monday, January 02")
				if day != lastDay {
					fmt.Fprintf(out, "\n%s\n", day)
					lastDay = day
				}
				fmt.Fprintf(out, "  %s-%s  %s\n", ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.Summary)
			}
			fmt.Fprintf(out, "\n%d events\n", len(events))
			return nil
		},
	}
}
