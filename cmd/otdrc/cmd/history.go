package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/report"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/store"
)

type historyOptions struct {
	DB     string
	Limit  int
	Run    int64
	Format string
}

func newHistoryCommand() *cobra.Command {
	opts := historyOptions{}
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "Show recorded check runs",
		Long: `List runs recorded by 'otdrc check --history', newest first.

Examples:
  otdrc history --db runs.db                 # All inputs
  otdrc history --db runs.db board.json      # One input
  otdrc history --db runs.db --run 12        # Errors of run 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite history database")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().Int64Var(&opts.Run, "run", 0, "Show the errors recorded for this run")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

func runHistory(cmd *cobra.Command, opts historyOptions, args []string) error {
	path := resolveString(cmd, opts.DB, "history_db", "db")
	if path == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no history database: pass --db or set history_db")
	}

	format, err := report.ParseFormat(resolveString(cmd, opts.Format, "format", "format"))
	if err != nil {
		return err
	}

	db, err := store.Open(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to open history database %s", path)).
			WithCause(err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.Run != 0 {
		errs, err := db.RunErrors(ctx, opts.Run)
		if err != nil {
			return err
		}
		if format != report.FormatText {
			return report.Encode(out, format, errs)
		}
		fmt.Fprintf(out, "Run %d: %d errors\n", opts.Run, len(errs))
		for _, e := range errs {
			fmt.Fprintf(out, "  [%s] %s\n", e.Kind, e.Message)
		}
		return nil
	}

	source := ""
	if len(args) == 1 {
		source = args[0]
	}
	runs, err := db.ListRuns(ctx, source, opts.Limit)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list runs").
			WithCause(err)
	}

	if format != report.FormatText {
		return report.Encode(out, format, runs)
	}
	return displayRuns(out, runs)
}

func displayRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCHECKED\tSTATUS\tERRORS\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			r.ID, r.CheckedAt.Local().Format(time.DateTime), runStatus(r), r.ErrorCount, r.Source)
	}
	return tw.Flush()
}

func runStatus(r store.Run) string {
	switch {
	case r.Failure != "":
		return color.New(color.FgYellow).Sprint("FAILED")
	case r.OK:
		return color.New(color.FgGreen).Sprint("OK")
	default:
		return color.New(color.FgRed).Sprint("ERRORS")
	}
}
