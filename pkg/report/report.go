// Package report renders connectivity check results for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Format selects a rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown output format %q (want text, json or yaml)", s))
	}
}

// Summary counts the records a check looked at.
type Summary struct {
	Ports        int `json:"ports" yaml:"ports"`
	Traces       int `json:"traces" yaml:"traces"`
	Requirements int `json:"requirements" yaml:"requirements"`
	Classes      int `json:"classes" yaml:"classes"`
}

// Result is the outcome of checking one input.
type Result struct {
	Source   string                           `json:"source" yaml:"source"`
	OK       bool                             `json:"ok" yaml:"ok"`
	Summary  Summary                          `json:"summary" yaml:"summary"`
	Errors   []connectivity.ConnectivityError `json:"errors" yaml:"errors"`
	Dangling []connectivity.DanglingReference `json:"dangling,omitempty" yaml:"dangling,omitempty"`
	Failure  string                           `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// FromReport builds a Result from a check report.
func FromReport(source string, r *connectivity.Report) Result {
	idx := soup.Index(r.Soup)
	errs := r.Errors
	if errs == nil {
		errs = []connectivity.ConnectivityError{}
	}

	return Result{
		Source: source,
		OK:     r.OK(),
		Summary: Summary{
			Ports:        r.PortCount(),
			Traces:       len(idx.Traces),
			Requirements: len(r.Requirements),
			Classes:      len(r.Classes()),
		},
		Errors:   errs,
		Dangling: r.Dangling,
	}
}

// FromFailure builds a Result for an input that could not be checked.
func FromFailure(source string, err error) Result {
	return Result{
		Source:  source,
		Errors:  []connectivity.ConnectivityError{},
		Failure: err.Error(),
	}
}

// Render writes results in the requested format.
func Render(w io.Writer, format Format, results []Result) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Encode(w, format, results)
	case FormatText, "":
		return renderText(w, results)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a structured format", format)
	}
}

func renderText(w io.Writer, results []Result) error {
	var (
		okMark   = color.New(color.FgGreen).Sprint("✓")
		failMark = color.New(color.FgRed).Sprint("✗")
		warnMark = color.New(color.FgYellow).Sprint("!")
		dim      = color.New(color.FgHiBlack)
	)

	failed := 0
	for _, r := range results {
		switch {
		case r.Failure != "":
			failed++
			if _, err := fmt.Fprintf(w, "%s %s: %s\n", warnMark, r.Source, r.Failure); err != nil {
				return err
			}
			continue
		case r.OK:
			if _, err := fmt.Fprintf(w, "%s %s %s\n", okMark, r.Source,
				dim.Sprintf("(%d ports, %d traces, %d requirements)", r.Summary.Ports, r.Summary.Traces, r.Summary.Requirements)); err != nil {
				return err
			}
			continue
		}

		failed++
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", failMark, r.Source, plural(len(r.Errors), "connectivity error")); err != nil {
			return err
		}
		for _, e := range r.Errors {
			if _, err := fmt.Fprintf(w, "    %s %s\n", dim.Sprintf("[%s]", e.Kind), e.Message); err != nil {
				return err
			}
		}
	}

	if len(results) > 1 {
		summary := color.New(color.FgGreen).Sprintf("%d of %d passed", len(results)-failed, len(results))
		if failed > 0 {
			summary = color.New(color.FgRed).Sprintf("%d of %d failed", failed, len(results))
		}
		if _, err := fmt.Fprintln(w, summary); err != nil {
			return err
		}
	}

	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// RenderClasses writes the copper-connected classes of one input. The text
// form follows the KiCad net listing: one class per line with its ports.
func RenderClasses(w io.Writer, format Format, classes []connectivity.Class) error {
	if classes == nil {
		classes = []connectivity.Class{}
	}

	switch format {
	case FormatJSON, FormatYAML:
		return Encode(w, format, classes)
	case FormatText, "":
		if _, err := fmt.Fprintf(w, "Found %d connected classes:\n", len(classes)); err != nil {
			return err
		}
		id := color.New(color.FgCyan)
		for _, c := range classes {
			if _, err := fmt.Fprintf(w, "  %s (%d ports): %s\n", id.Sprintf("class %d", c.ID), len(c.Ports), strings.Join(c.Ports, ", ")); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
