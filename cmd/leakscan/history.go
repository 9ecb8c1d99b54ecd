package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakscan/internal/config"
	"github.com/nao1215/leakscan/internal/database"
)

// errHistoryNotFound is returned when the history database does not exist.
var errHistoryNotFound = errors.New("no scan history found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [OLD_RUN NEW_RUN]",
		Short: "Show recorded scan runs and compare their findings",
		Long: `History reads the findings database written by "scan --db".

Without arguments it lists recorded runs, newest first. With --run it lists
the findings of one run. With --diff and two run IDs it prints findings
that appeared in the newer run and findings that were resolved.

Examples:
  leakscan history
  leakscan history --run 5f0c...
  leakscan history --diff OLD_RUN NEW_RUN`,
		Args: cobra.MaximumNArgs(2),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String(config.FlagDB, config.DefaultDBPath(), "Findings database path")
	cmd.Flags().String("run", "", "List the findings of this run")
	cmd.Flags().Bool("diff", false, "Compare the findings of two runs")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString(config.FlagDB)
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	if diff && len(args) != 2 {
		return errors.New("--diff requires two run IDs")
	}
	if !diff && len(args) > 0 {
		return errors.New("run IDs are only accepted with --diff")
	}

	// Opening would create an empty database.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w at %s", errHistoryNotFound, path)
	}
	db, err := database.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case diff:
		return printDiff(ctx, out, db, args[0], args[1])
	case runID != "":
		return printFindings(ctx, out, db, runID)
	default:
		return printRuns(ctx, out, db)
	}
}

func printRuns(ctx context.Context, w io.Writer, db *database.FindingsDB) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tLOCATIONS\tFAILED\tMATCHES")
	for _, r := range runs {
		duration := "running"
		if r.Finished() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			duration,
			r.Totals.Admitted,
			r.Totals.Failed,
			r.Matches,
		)
	}
	return tw.Flush()
}

func printFindings(ctx context.Context, w io.Writer, db *database.FindingsDB, runID string) error {
	findings, err := db.Findings(ctx, runID)
	if err != nil {
		return err
	}
	return writeFindings(w, findings)
}

func printDiff(ctx context.Context, w io.Writer, db *database.FindingsDB, oldRun, newRun string) error {
	d, err := db.Diff(ctx, oldRun, newRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "New findings (%d):\n", len(d.New))
	if err := writeFindings(w, d.New); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nResolved findings (%d):\n", len(d.Resolved))
	return writeFindings(w, d.Resolved)
}

func writeFindings(w io.Writer, findings []database.Finding) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tTITLE\tFIND\tLOCATION")
	for _, f := range findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Severity, f.Title, f.Masked, f.Location)
	}
	return tw.Flush()
}
