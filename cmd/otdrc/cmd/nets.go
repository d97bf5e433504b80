package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDRC/internal/runner"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/report"
)

type netsOptions struct {
	checkFlags
	Format string
	Board  bool
}

func newNetsCommand() *cobra.Command {
	opts := netsOptions{}
	cmd := &cobra.Command{
		Use:   "nets <file> [net_name]",
		Short: "Show connected port classes or KiCad net information",
		Long: `Display the groups of ports that the copper actually connects.

With --board (KiCad files only): lists all nets with pad/track/via counts
With net_name (KiCad files only): shows detailed information for that net`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNets(cmd, opts, args)
		},
	}
	addCheckFlags(cmd, &opts.checkFlags)
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format for classes (text, json, yaml)")
	cmd.Flags().BoolVar(&opts.Board, "board", false, "List the KiCad board's nets instead of connected classes")
	return cmd
}

func runNets(cmd *cobra.Command, opts netsOptions, args []string) error {
	filename := args[0]
	out := cmd.OutOrStdout()

	if opts.Board || len(args) == 2 {
		if !strings.EqualFold(filepath.Ext(filename), ".kicad_pcb") {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("net listing needs a .kicad_pcb file")
		}
		board, err := pcb.ParseFile(filename)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("failed to parse %s", filename)).
				WithCause(err)
		}
		if len(args) == 2 {
			return showNetDetails(out, board, args[1])
		}
		listAllNets(out, board)
		return nil
	}

	format, err := report.ParseFormat(resolveString(cmd, opts.Format, "format", "format"))
	if err != nil {
		return err
	}

	cfg, board := opts.resolve(cmd)
	s, err := runner.Load(filename, board)
	if err != nil {
		return err
	}
	result, err := connectivity.Check(s, &cfg)
	if err != nil {
		return err
	}

	return report.RenderClasses(out, format, result.Classes())
}

func listAllNets(w io.Writer, board *pcb.Board) {
	fmt.Fprintf(w, "Board: %d nets\n\n", len(board.Nets))
	fmt.Fprintf(w, "%-30s %6s %6s %6s  %s\n", "Net Name", "Pads", "Tracks", "Vias", "Zone")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────────")

	index := board.NetIndex()
	nets := make([]*pcb.NetInfo, 0, len(index))
	for _, info := range index {
		if info.Net.Name != "" {
			nets = append(nets, info)
		}
	}
	sort.Slice(nets, func(i, j int) bool { return nets[i].Net.Name < nets[j].Net.Name })

	for _, info := range nets {
		zone := ""
		if info.Zoned {
			zone = "yes"
		}
		fmt.Fprintf(w, "%-30s %6d %6d %6d  %s\n",
			info.Net.Name,
			len(info.Pads),
			len(info.Tracks),
			len(info.Vias),
			zone)
	}
}

func showNetDetails(w io.Writer, board *pcb.Board, netName string) error {
	info := board.LookupNet(netName)
	if info == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("net '%s' not found", netName))
	}

	fmt.Fprintf(w, "Net: %s (number %d)\n", info.Net.Name, info.Net.Number)
	if info.Zoned {
		fmt.Fprintln(w, "Owns a copper zone: skipped by check unless --include-zone-nets")
	}

	fmt.Fprintf(w, "\nPads (%d):\n", len(info.Pads))
	for _, p := range info.Pads {
		fmt.Fprintf(w, "  %-10s %s %.2f×%.2f mm at (%.2f, %.2f)\n",
			p.Name, p.Pad.Shape,
			p.Pad.Size.Width, p.Pad.Size.Height,
			p.At.X, p.At.Y)
	}

	fmt.Fprintf(w, "\nTracks (%d):\n", len(info.Tracks))
	for i, track := range info.Tracks {
		fmt.Fprintf(w, "  Track %d: %.2f mm wide on %s from (%.2f, %.2f) to (%.2f, %.2f)\n",
			i+1, track.Width, track.Layer,
			track.Start.X, track.Start.Y,
			track.End.X, track.End.Y)
	}

	fmt.Fprintf(w, "\nVias (%d):\n", len(info.Vias))
	for i, via := range info.Vias {
		fmt.Fprintf(w, "  Via %d: %.2f mm diameter, %.2f mm drill at (%.2f, %.2f) on %s\n",
			i+1, via.Size, via.Drill,
			via.Position.X, via.Position.Y,
			strings.Join(via.Layers, ", "))
	}

	return nil
}
