package connectivity

import (
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Report is the outcome of one check.
type Report struct {
	Errors       []ConnectivityError
	Traces       []*soup.Trace // Annotated copies of the soup's traces
	Soup         soup.Soup     // Copy of the input with annotated traces
	Requirements []Requirement
	Dangling     []DanglingReference

	graph *Graph
}

// OK reports whether every requirement is satisfied.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Classes returns the copper-connected port classes found on the board.
func (r *Report) Classes() []Class {
	return r.graph.Classes()
}

// PortCount returns the number of distinct ports on the board.
func (r *Report) PortCount() int {
	return r.graph.Len()
}

// Connected reports whether two ports share copper.
func (r *Report) Connected(a, b string) bool {
	return r.graph.Connected(a, b)
}

// Check verifies that every requirement group in the soup is realized by
// routed copper. The soup is never modified: inferred endpoint references are
// written to the copies in Report.Traces and Report.Soup.
//
// A nil cfg uses DefaultConfig. Errors are returned only for invalid
// configuration; problems in the soup itself never fail the check.
func Check(s soup.Soup, cfg *Config) (*Report, error) {
	c := DefaultConfig()
	if cfg != nil {
		*c = *cfg
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	idx := soup.Index(s)
	tg := BuildGraph(idx.Ports, idx.Traces, c.Tolerance)
	reqs := ExtractRequirements(idx.Ports, idx.Groups)
	errs := Verify(tg.Graph, reqs)

	if c.ReportDanglingReferences {
		for _, ref := range tg.Dangling {
			errs = append(errs, danglingError(ref))
		}
	}

	return &Report{
		Errors:       errs,
		Traces:       tg.Traces,
		Soup:         annotatedSoup(s, tg.Traces),
		Requirements: reqs,
		Dangling:     tg.Dangling,
		graph:        tg.Graph,
	}, nil
}

// CheckEachPortConnected runs Check with the default configuration and
// returns only the error list. An empty list means the layout is complete.
func CheckEachPortConnected(s soup.Soup) []ConnectivityError {
	report, err := Check(s, nil)
	if err != nil {
		// DefaultConfig always validates
		panic(err)
	}
	return report.Errors
}

// annotatedSoup copies s, substituting traces in order.
func annotatedSoup(s soup.Soup, traces []*soup.Trace) soup.Soup {
	out := make(soup.Soup, 0, len(s))
	next := 0
	for _, elem := range s {
		if _, ok := elem.(*soup.Trace); ok {
			out = append(out, traces[next])
			next++
			continue
		}
		out = append(out, soup.CloneElement(elem))
	}
	return out
}
