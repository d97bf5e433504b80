package cmd

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDRC/internal/runner"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

type annotateOptions struct {
	checkFlags
	Output string
}

func newAnnotateCommand() *cobra.Command {
	opts := annotateOptions{}
	cmd := &cobra.Command{
		Use:   "annotate <file>",
		Short: "Write the soup with inferred trace endpoints",
		Long: `Check a board and write it back as a JSON soup in which every trace
endpoint matched to a port by position carries that port's ID.

KiCad boards are written in their converted soup form. Connectivity errors
are logged but do not change the exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, opts, args[0])
		},
	}
	addCheckFlags(cmd, &opts.checkFlags)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func runAnnotate(cmd *cobra.Command, opts annotateOptions, path string) error {
	cfg, board := opts.resolve(cmd)

	s, err := runner.Load(path, board)
	if err != nil {
		return err
	}

	result, err := connectivity.Check(s, &cfg)
	if err != nil {
		return err
	}
	if !result.OK() {
		log.Warn().Str("path", path).Int("errors", len(result.Errors)).Msg("board has connectivity errors")
	}

	data, err := soup.Marshal(result.Soup)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode soup").
			WithCause(err)
	}
	data = append(data, '\n')

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", opts.Output)).
			WithCause(err)
	}
	log.Info().Str("path", opts.Output).Int("traces", len(result.Traces)).Msg("wrote annotated soup")
	return nil
}
