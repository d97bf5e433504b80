package connectivity

import (
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Endpoint names one end of a route segment.
type Endpoint string

const (
	EndpointStart Endpoint = "start"
	EndpointEnd   Endpoint = "end"
)

// DanglingReference is an explicit segment endpoint reference to a port that
// is not on the board. It contributes no connection.
type DanglingReference struct {
	TraceID  string   `json:"pcb_trace_id" yaml:"pcb_trace_id"`
	Segment  int      `json:"segment" yaml:"segment"`
	Endpoint Endpoint `json:"endpoint" yaml:"endpoint"`
	PortID   string   `json:"pcb_port_id" yaml:"pcb_port_id"`
}

// TraceGraph is the result of resolving every trace against the ports.
type TraceGraph struct {
	Graph    *Graph
	Traces   []*soup.Trace // Annotated copies, same order as the input
	Dangling []DanglingReference
}

// BuildGraph joins ports that are connected by traces.
//
// The first segment's start and the last segment's end are inferred from
// geometry when they carry no reference: the first port (in slice order)
// closer than tolerance wins, and its id is written into the annotated copy.
// Every endpoint that resolves to a port is merged with the previously
// resolved endpoint of the same trace. The input traces are not modified.
func BuildGraph(ports []*soup.Port, traces []*soup.Trace, tolerance float64) *TraceGraph {
	ids := make([]string, len(ports))
	for i, p := range ports {
		ids[i] = p.PortID
	}

	tg := &TraceGraph{
		Graph:  NewGraph(ids),
		Traces: make([]*soup.Trace, 0, len(traces)),
	}

	for _, orig := range traces {
		trace := orig.Clone()
		tg.resolveTrace(trace, ports, tolerance)
		tg.Traces = append(tg.Traces, trace)
	}

	return tg
}

func (tg *TraceGraph) resolveTrace(trace *soup.Trace, ports []*soup.Port, tolerance float64) {
	last := ""
	link := func(i int, end Endpoint, id string) {
		if id == "" {
			return
		}
		if !tg.Graph.Has(id) {
			tg.Dangling = append(tg.Dangling, DanglingReference{
				TraceID:  trace.TraceID,
				Segment:  i,
				Endpoint: end,
				PortID:   id,
			})
			return
		}
		if last != "" {
			tg.Graph.Connect(last, id)
		}
		last = id
	}

	n := len(trace.Route)
	for i := range trace.Route {
		seg := &trace.Route[i]

		if i == 0 && seg.StartPortID == "" {
			if p := portAt(ports, seg.Position(), tolerance); p != nil {
				seg.StartPortID = p.PortID
			}
		}
		link(i, EndpointStart, seg.StartPortID)

		if i == n-1 && seg.EndPortID == "" {
			if p := portAt(ports, seg.Position(), tolerance); p != nil {
				seg.EndPortID = p.PortID
			}
		}
		link(i, EndpointEnd, seg.EndPortID)
	}
}

// portAt returns the first port strictly closer than tolerance to pt.
func portAt(ports []*soup.Port, pt soup.Point, tolerance float64) *soup.Port {
	for _, p := range ports {
		if p.Position().Distance(pt) < tolerance {
			return p
		}
	}
	return nil
}
