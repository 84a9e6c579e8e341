package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/wms/cmd/wms/cli"
	"github.com/odyssey-erp/wms/internal/app"
	"github.com/odyssey-erp/wms/internal/platform/db"
	"github.com/odyssey-erp/wms/jobs"
	"github.com/odyssey-erp/wms/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(int(exit))
		}
		_, _ = fmt.Fprintln(os.Stderr, "wms:", err)
		os.Exit(1)
	}
}

// exitError carries a non-zero exit code out of a subcommand.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wms",
		Short:         "Work management system: quotations, sales orders and production",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newPriceCommand(),
		newJobsCommand(),
		newMigrateCommand(),
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return err
	}
	logger := app.NewLogger(cfg)
	if err := serve(cmd.Context(), cfg, logger); err != nil {
		logger.Error("http server", slog.Any("error", err))
		return err
	}
	return nil
}

func newPriceCommand() *cobra.Command {
	var opts cli.PriceOptions
	cmd := &cobra.Command{
		Use:   "price -f quote.json",
		Short: "Price a quote file (JSON or YAML) and print the breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			if code := cli.PriceCommand(opts); code != cli.ExitOK {
				return exitError(code)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Path, "file", "f", "", "quote file, or - for stdin")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.SellerState, "seller-state", os.Getenv("SELLER_STATE"), "home state for the GST label")
	return cmd
}

func newJobsCommand() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")

	var trigger cli.TriggerOptions
	triggerCmd := &cobra.Command{
		Use:       "trigger TASK",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskQuotationsExpire, jobs.TaskQuotationPDF, jobs.TaskIdempotencyCleanup},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli.NewJobsCLI(redisAddr)
			defer c.Close()
			info, err := c.Trigger(cmd.Context(), args[0], trigger)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return err
		},
	}
	triggerCmd.Flags().Int64Var(&trigger.CompanyID, "company", 0, "company id (render task)")
	triggerCmd.Flags().Int64Var(&trigger.QuotationID, "quotation", 0, "quotation id (render task)")
	triggerCmd.Flags().DurationVar(&trigger.Retention, "retention", 72*time.Hour, "key retention (cleanup task)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cli.NewJobsCLI(redisAddr)
			defer c.Close()
			stats, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
			return err
		},
	}
	cmd.AddCommand(triggerCmd, statsCmd)
	return cmd
}

func newMigrateCommand() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			m, err := db.NewMigrator(pool, migrations.FS)
			if err != nil {
				return err
			}
			defer m.Close()

			switch action {
			case "down":
				err = m.Down(steps)
			case "up":
				err = m.Up()
			}
			if err != nil {
				return err
			}
			status, err := m.Status()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version=%d dirty=%t\n", status.Version, status.Dirty)
			return err
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "migrations to roll back (down only)")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
