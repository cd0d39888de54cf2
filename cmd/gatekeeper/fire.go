package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/config"
	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
	"github.com/kpcl-automation/gatekeeper/internal/schedule"
	"github.com/spf13/cobra"
)

// NewFireCmd creates the fire command.
func NewFireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fire",
		Short: "Fire one submission pass immediately",
		Long: `Fire runs a single submission pass right now, without waiting for the
scheduled trigger instant.

Every configured account is processed exactly as in a scheduled pass:
session from stored cookies, live form reconciliation, concurrent
submission with per-account failure isolation. The pass is recorded in
the run history with a manual trigger marker.

Use this to verify the account configuration before relying on the
scheduler, or to recover a morning where the daemon was down.

Examples:
  # Fire all accounts now
  gatekeeper fire

  # Fire and print the report as JSON
  gatekeeper fire --json`,
		Args: cobra.NoArgs,
		RunE: runFireCmd,
	}

	addPortalFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().Bool("otp-stdin", false,
		"Run the full OTP login challenge, reading passcodes from stdin (accounts with a password only)")

	return cmd
}

// runFireCmd executes the fire command.
func runFireCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	otpStdin, err := cmd.Flags().GetBool("otp-stdin")
	if err != nil {
		return err
	}
	var otp portal.OTPSource
	if otpStdin {
		otp = promptOTPSource(cmd.InOrStdin(), cmd.OutOrStdout())
		// Interleaved terminal prompts make no sense; serialize the pass.
		cfg.Concurrency = 1
	}

	return runFire(ctx, cfg, logger, otp)
}

// runFire executes one manual pass and reports the result.
func runFire(ctx context.Context, cfg *config.Config, logger *slog.Logger, otp portal.OTPSource) error {
	accounts, path, err := loadAccounts(cfg)
	if err != nil {
		return err
	}

	db, err := openHistoryDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	bp := newBatchProcessor(cfg, logger, otp)

	fmt.Printf("Firing submission pass for %d account(s) from %s...\n", len(accounts), path)
	startTime := time.Now()

	loop := schedule.NewDispatchLoop(
		func(ctx context.Context) []model.SubmissionOutcome {
			return bp.ProcessBatch(ctx, accounts)
		},
		schedule.WithLoopLogger(logger),
	)
	runReport := loop.RunOnce(ctx, model.TriggerManual)

	fmt.Printf("Pass completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, runReport); err != nil {
		return fmt.Errorf("report output failed: %w", err)
	}

	if err := saveRunReport(ctx, db, runReport, logger); err != nil {
		logger.Error("failed to save run report", "error", err)
	}

	// The exit code tells cron mail readers whether the morning went
	// through.
	if failed := runReport.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d account(s) failed", failed, len(runReport.Outcomes))
	}
	return nil
}
