package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kpcl-automation/gatekeeper/internal/config"
	"github.com/kpcl-automation/gatekeeper/internal/history"
	"github.com/kpcl-automation/gatekeeper/internal/log"
	"github.com/kpcl-automation/gatekeeper/internal/model"
	"github.com/kpcl-automation/gatekeeper/internal/pipeline"
	"github.com/kpcl-automation/gatekeeper/internal/portal"
	"github.com/kpcl-automation/gatekeeper/internal/report"
	"github.com/kpcl-automation/gatekeeper/internal/schedule"
	"github.com/kpcl-automation/gatekeeper/internal/scrape"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily submission scheduler",
		Long: `Run starts the long-lived scheduler daemon.

The daemon sleeps until the configured trigger instant (06:59:59 by
default), then fires one submission pass: every configured account gets
its session restored from stored cookies, the live gatepass form is
scraped and reconciled with the account's overrides, and the merged form
is submitted. All accounts run concurrently and one account's failure
never affects another.

While idle, the daemon logs a liveness heartbeat so an operator can
confirm from the logs that it is still waiting.

Examples:
  # Run with accounts from .gatekeeper.yml in the current or home directory
  gatekeeper run

  # Fire at a different wall-clock instant
  gatekeeper run --trigger-at 06:59:58

  # Write each morning's report to a file as Markdown
  gatekeeper run --markdown --output reports/today.md`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	addPortalFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().StringP("trigger-at", "t", config.DefaultTriggerAt,
		"Daily firing instant in hh:mm:ss (local wall-clock)")
	cmd.Flags().Duration("liveness-interval", config.DefaultLivenessInterval,
		"How often the idle daemon logs a heartbeat")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping scheduler...")
		cancel()
	}()

	return runScheduler(ctx, cfg, logger)
}

// runScheduler starts the dispatch loop and blocks until shutdown.
func runScheduler(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	accounts, path, err := loadAccounts(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting scheduler",
		"accounts", len(accounts),
		"accountsFile", path,
		"triggerAt", cfg.TriggerAt,
		"concurrency", cfg.Concurrency,
	)

	db, err := openHistoryDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	bp := newBatchProcessor(cfg, logger, nil)
	runner := func(ctx context.Context) []model.SubmissionOutcome {
		return bp.ProcessBatch(ctx, accounts)
	}

	hour, minute, second, err := config.ParseTriggerAt(cfg.TriggerAt)
	if err != nil {
		return err
	}

	loop := schedule.NewDispatchLoop(runner,
		schedule.WithTriggerTime(hour, minute, second),
		schedule.WithLivenessInterval(cfg.LivenessInterval),
		schedule.WithLoopLogger(logger),
		schedule.WithOnReport(func(runReport *model.RunReport) {
			if err := outputReport(cfg, runReport); err != nil {
				logger.Error("report output failed", "error", err)
			}
			if err := saveRunReport(context.Background(), db, runReport, logger); err != nil {
				logger.Error("failed to save run report", "error", err)
			}
		}),
	)

	// Cancellation is the daemon's normal way to stop.
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// addPortalFlags registers the flags shared by commands that talk to the
// portal.
func addPortalFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("accounts", "a", "",
		"Account configuration file path (default: .gatekeeper.yml in current or home directory)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Portal base URL")
	cmd.Flags().Duration("auth-timeout", config.DefaultAuthTimeout,
		"Timeout for each authentication request")
	cmd.Flags().Duration("scrape-timeout", config.DefaultScrapeTimeout,
		"Timeout for the gatepass form fetch")
	cmd.Flags().Duration("submit-timeout", config.DefaultSubmitTimeout,
		"Timeout for the final submission POST")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Maximum number of accounts processed at once")
}

// addReportFlags registers the run-report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.AccountsFile, err = cmd.Flags().GetString("accounts")
	if err != nil {
		return nil, err
	}

	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, err
	}

	cfg.AuthTimeout, err = cmd.Flags().GetDuration("auth-timeout")
	if err != nil {
		return nil, err
	}

	cfg.ScrapeTimeout, err = cmd.Flags().GetDuration("scrape-timeout")
	if err != nil {
		return nil, err
	}

	cfg.SubmitTimeout, err = cmd.Flags().GetDuration("submit-timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	// Scheduler-only flags are absent on fire; keep the defaults there.
	if cmd.Flags().Lookup("trigger-at") != nil {
		cfg.TriggerAt, err = cmd.Flags().GetString("trigger-at")
		if err != nil {
			return nil, err
		}
		cfg.LivenessInterval, err = cmd.Flags().GetDuration("liveness-interval")
		if err != nil {
			return nil, err
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler redacts credentials, cookies, and passcodes so session
// material never lands in logs.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// loadAccounts finds and loads the account configuration file and
// resolves its records into model accounts. It returns the accounts and
// the path the file was loaded from.
func loadAccounts(cfg *config.Config) ([]model.Account, string, error) {
	path := config.FindAccountsFile(cfg.AccountsFile)
	if path == "" {
		if cfg.AccountsFile != "" {
			return nil, "", fmt.Errorf("account configuration file not found: %s", cfg.AccountsFile)
		}
		return nil, "", fmt.Errorf("no %s found in current or home directory (see the validate command)",
			config.DefaultAccountsFile)
	}

	af, err := config.LoadAccountsFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load account file %s: %w", path, err)
	}

	return af.ResolveAccounts(), path, nil
}

// openHistoryDB opens the run history database if saving is enabled.
// Returns nil when history persistence is off.
func openHistoryDB(cfg *config.Config, logger *slog.Logger) (*history.DB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}

	db, err := history.Open(cfg.DBDir, history.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	logger.Info("history database opened", "dir", cfg.DBDir)
	return db, nil
}

// newBatchProcessor builds the batch processor with a fresh pipeline per
// account. Each pass gets its own session, reconciler, and dispatcher so
// no state leaks between accounts.
//
// The OTP source is nil for unattended runs; sessions then come from
// stored cookies only.
func newBatchProcessor(cfg *config.Config, logger *slog.Logger, otp portal.OTPSource) *pipeline.BatchProcessor {
	sessionOpts := []pipeline.SessionStepOption{
		pipeline.WithSessionLogger(logger),
		pipeline.WithAuthOptions(
			portal.WithAuthTimeout(cfg.AuthTimeout),
			portal.WithAuthMaxBodySize(cfg.MaxBodySize),
			portal.WithAuthLogger(logger),
		),
	}
	if otp != nil {
		sessionOpts = append(sessionOpts, pipeline.WithOTPSource(otp))
	}

	return pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			p := pipeline.New(pipeline.WithLogger(logger))
			p.AddSteps(
				pipeline.NewSessionStep(cfg.BaseURL, sessionOpts...),
				pipeline.NewReconcileStep(
					scrape.WithScrapeTimeout(cfg.ScrapeTimeout),
					scrape.WithScrapeMaxBodySize(cfg.MaxBodySize),
					scrape.WithScrapeLogger(logger),
				),
				pipeline.NewSubmitStep(
					portal.WithSubmitTimeout(cfg.SubmitTimeout),
					portal.WithSubmitMaxBodySize(cfg.MaxBodySize),
					portal.WithSubmitLogger(logger),
				),
			)
			return p
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Reports may contain response excerpts that should only be
		// readable by the owner
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(runReport)
	return err
}

// saveRunReport saves the run report to the history database if enabled.
// If db is nil, this function is a no-op.
func saveRunReport(ctx context.Context, db *history.DB, runReport *model.RunReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveRun(ctx, runReport)
	if err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}

	logger.Info("run report saved to history", "runID", id)
	return nil
}
