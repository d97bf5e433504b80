package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDRC/internal/runner"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/report"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/store"
)

// checkFlags are shared by every command that runs a check.
type checkFlags struct {
	Tolerance       float64
	ReportDangling  bool
	ExcludeNets     []string
	IncludeZoneNets bool
}

func addCheckFlags(cmd *cobra.Command, f *checkFlags) {
	cmd.Flags().Float64Var(&f.Tolerance, "tolerance", connectivity.DefaultTolerance, "Maximum trace endpoint to port distance in mm")
	cmd.Flags().BoolVar(&f.ReportDangling, "report-dangling", false, "Report trace references to ports that do not exist")
	cmd.Flags().StringSliceVar(&f.ExcludeNets, "exclude-net", nil, "KiCad net names to skip")
	cmd.Flags().BoolVar(&f.IncludeZoneNets, "include-zone-nets", false, "Check KiCad nets that own a copper zone")
}

func (f *checkFlags) resolve(cmd *cobra.Command) (connectivity.Config, pcb.Options) {
	cfg := connectivity.Config{
		Tolerance:                resolveFloat(cmd, f.Tolerance, "tolerance", "tolerance"),
		ReportDanglingReferences: resolveBool(cmd, f.ReportDangling, "report_dangling", "report-dangling"),
	}
	board := pcb.Options{
		ExcludeNets:     resolveStrings(cmd, f.ExcludeNets, "exclude_nets", "exclude-net"),
		IncludeZoneNets: resolveBool(cmd, f.IncludeZoneNets, "include_zone_nets", "include-zone-nets"),
	}
	return cfg, board
}

type checkOptions struct {
	checkFlags
	Format  string
	Jobs    int
	History string
}

func newCheckCommand() *cobra.Command {
	opts := checkOptions{}
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Check that every required connection is routed",
		Long: `Check one or more boards and report every port that is not connected to
the ports its requirement group lists.

The exit status is 1 when any input has connectivity errors or could not be
loaded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd, opts, args)
		},
	}
	addCheckFlags(cmd, &opts.checkFlags)
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format (text, json, yaml)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Files checked in parallel (default: number of CPUs)")
	cmd.Flags().StringVar(&opts.History, "history", "", "Record results in this SQLite database")
	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, opts checkOptions, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := report.ParseFormat(resolveString(cmd, opts.Format, "format", "format"))
	if err != nil {
		return err
	}

	cfg, board := opts.resolve(cmd)
	files, err := runner.CheckFiles(ctx, paths, runner.Options{
		Check: cfg,
		Board: board,
		Jobs:  resolveInt(cmd, opts.Jobs, "jobs", "jobs"),
	})
	if err != nil {
		return err
	}

	results := make([]report.Result, len(files))
	failed := 0
	for i, f := range files {
		if f.Err != nil {
			results[i] = report.FromFailure(f.Path, f.Err)
			log.Warn().Str("path", f.Path).Err(f.Err).Msg("input not checked")
		} else {
			results[i] = report.FromReport(f.Path, f.Report)
		}
		if !results[i].OK {
			failed++
		}
	}

	if history := resolveString(cmd, opts.History, "history_db", "history"); history != "" {
		if err := recordHistory(ctx, history, results); err != nil {
			return err
		}
	}

	if err := report.Render(cmd.OutOrStdout(), format, results); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write report").
			WithCause(err)
	}

	if failed > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%d of %d inputs failed the connectivity check", failed, len(results)))
	}
	return nil
}

func recordHistory(ctx context.Context, path string, results []report.Result) error {
	db, err := store.Open(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to open history database %s", path)).
			WithCause(err)
	}
	defer db.Close()

	now := time.Now()
	for _, r := range results {
		id, err := db.RecordRun(ctx, r, now)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to record run").
				WithCause(err)
		}
		log.Debug().Int64("run", id).Str("source", r.Source).Msg("recorded run")
	}
	return nil
}
