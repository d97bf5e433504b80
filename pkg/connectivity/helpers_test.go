package connectivity

import (
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

func port(id, source string, x, y float64) *soup.Port {
	return &soup.Port{
		PortID:       id,
		SourcePortID: source,
		X:            x,
		Y:            y,
		ComponentID:  "comp_" + id,
		Layers:       []string{"top"},
	}
}

func wire(x, y float64) soup.RouteSegment {
	return soup.RouteSegment{RouteType: soup.RouteTypeWire, X: x, Y: y, Width: 0.1, Layer: "top"}
}

func trace(id string, route ...soup.RouteSegment) *soup.Trace {
	return &soup.Trace{TraceID: id, Route: route}
}

func group(id string, sources []string, nets ...string) *soup.SourceTrace {
	return &soup.SourceTrace{
		SourceTraceID:          id,
		ConnectedSourcePortIDs: sources,
		ConnectedSourceNetIDs:  nets,
	}
}
