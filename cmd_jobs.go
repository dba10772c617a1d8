package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pigent-app/internal/payments"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			cleanup()
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var opts payments.SweepOptions

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Verify stale pending payments with Paystack",
		Long: `Looks up every pending payment older than --older-than and asks Paystack
for its status. Paid transactions are marked successful and get their bot,
declined ones are marked failed. Run it from cron to recover missed webhooks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := a.svc.Sweep(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d: %d succeeded, %d failed, %d unchanged, %d errors\n",
				report.Checked, report.Succeeded, report.Failed, report.Unchanged, report.Errors)
			if report.Errors > 0 {
				return fmt.Errorf("sweep: %d references could not be reconciled", report.Errors)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&opts.OlderThan, "older-than", 15*time.Minute, "only pending payments created before now minus this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 500, "maximum payments to check, 0 for no limit")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "parallel Paystack lookups")
	return cmd
}
