package main

import (
	"fmt"
	"time"

	"github.com/kpcl-automation/gatekeeper/internal/config"
	"github.com/kpcl-automation/gatekeeper/internal/history"
	"github.com/kpcl-automation/gatekeeper/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past submission runs",
		Long: `History queries the local run database that every scheduled and manual
pass is recorded in.

By default it lists the most recent runs with their success/failure
totals. A single run can be shown in full with --id, and one account's
trail across runs with --account.

Examples:
  # List the last 10 runs
  gatekeeper history

  # Show one run's full report
  gatekeeper history --id 42

  # Show one account's outcomes across runs
  gatekeeper history --account userA`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of entries to show")
	cmd.Flags().Int64("id", 0, "Show the full report for a single run")
	cmd.Flags().String("account", "", "Show one account's outcomes across runs")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of plain text")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	identity, err := cmd.Flags().GetString("account")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Reading history must not create an empty database.
	db, err := history.Open(dbDir, history.Options{EnableWAL: true})
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case runID != 0:
		return showRun(cmd, db, runID, jsonOut)
	case identity != "":
		return showIdentityHistory(cmd, db, identity, limit)
	default:
		return listRuns(cmd, db, limit)
	}
}

// showRun prints one run's full report.
func showRun(cmd *cobra.Command, db *history.DB, id int64, jsonOut bool) error {
	runReport, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if runReport == nil {
		return fmt.Errorf("run %d not found", id)
	}

	var writer report.Writer
	if jsonOut {
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	}
	_, err = writer.Write(runReport)
	return err
}

// showIdentityHistory prints one account's outcomes across runs.
func showIdentityHistory(cmd *cobra.Command, db *history.DB, identity string, limit int) error {
	outcomes, err := db.IdentityHistory(cmd.Context(), identity, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(outcomes) == 0 {
		fmt.Fprintf(out, "No recorded outcomes for %s\n", identity)
		return nil
	}

	fmt.Fprintf(out, "Last %d outcome(s) for %s:\n\n", len(outcomes), identity)
	for _, o := range outcomes {
		fmt.Fprintf(out, "  %s  %-16s", o.Timestamp.Format("2006-01-02 15:04:05"), o.Status)
		if o.HTTPStatus != 0 {
			fmt.Fprintf(out, " HTTP %d", o.HTTPStatus)
		}
		if o.Latency > 0 {
			fmt.Fprintf(out, " in %s", o.Latency.Round(time.Millisecond))
		}
		fmt.Fprintln(out)
	}
	return nil
}

// listRuns prints the most recent runs with their totals.
func listRuns(cmd *cobra.Command, db *history.DB, limit int) error {
	runs, err := db.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-10s %-20s %-10s %s\n", "ID", "TRIGGER", "STARTED", "DURATION", "RESULT")
	for _, r := range runs {
		fmt.Fprintf(out, "%-6d %-10s %-20s %-10s %d ok / %d failed\n",
			r.ID,
			r.Trigger,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(10*time.Millisecond),
			r.Succeeded,
			r.Failed,
		)
	}
	return nil
}
