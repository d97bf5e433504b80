// Package runner loads boards from disk and checks them concurrently.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Options controls a batch check.
type Options struct {
	Check connectivity.Config
	Board pcb.Options // Conversion of .kicad_pcb inputs
	Jobs  int         // Files checked at once (default: number of CPUs)
}

// FileResult is the outcome for one input path. Err is set when the file
// could not be loaded; Report is nil in that case.
type FileResult struct {
	Path   string
	Report *connectivity.Report
	Err    error
}

// Load reads a soup from path. The format follows the extension: .json,
// .yaml/.yml or .kicad_pcb (converted with board options).
func Load(path string, board pcb.Options) (soup.Soup, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("input %s not found", path)).
				WithCause(err)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to stat %s", path)).
			WithCause(err)
	}

	var (
		s   soup.Soup
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		s, err = soup.ParseFile(path)
	case ".yaml", ".yml":
		s, err = loadYAML(path)
	case ".kicad_pcb":
		var b *pcb.Board
		b, err = pcb.ParseFile(path)
		if err == nil {
			s = pcb.ToSoup(b, board)
		}
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported input %s: extension %q is not .json, .yaml, .yml or .kicad_pcb", path, ext))
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to load %s", path)).
			WithCause(err)
	}

	return s, nil
}

func loadYAML(path string) (soup.Soup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return soup.ParseYAML(f)
}

// CheckFiles loads and checks every path. Results are returned in input
// order. Load failures are reported per file; the returned error is set only
// for an invalid configuration or a cancelled context.
func CheckFiles(ctx context.Context, paths []string, opts Options) ([]FileResult, error) {
	cfg := opts.Check
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			results[i] = checkFile(path, opts.Board, &cfg)
			ev := log.Debug().
				Str("path", path).
				Dur("elapsed", time.Since(start))
			if r := results[i]; r.Err != nil {
				ev.Err(r.Err).Msg("load failed")
			} else {
				ev.Int("errors", len(r.Report.Errors)).Msg("checked")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func checkFile(path string, board pcb.Options, cfg *connectivity.Config) FileResult {
	s, err := Load(path, board)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}

	report, err := connectivity.Check(s, cfg)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}

	return FileResult{Path: path, Report: report}
}
