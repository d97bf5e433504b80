package pcb

import (
	"fmt"
	"math"
	"slices"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Options controls how a board is converted into a soup.
type Options struct {
	// ExcludeNets lists net names that produce no requirement group.
	ExcludeNets []string

	// IncludeZoneNets keeps requirement groups for nets that own a copper
	// zone. Zones are not converted, so pads joined only through a pour
	// would otherwise be reported as unconnected.
	IncludeZoneNets bool
}

// Port ID prefixes for synthetic ports. Neither carries a source port ID,
// so they are never part of a requirement.
const (
	viaPortPrefix      = "via:"
	junctionPortPrefix = "junction:"
)

// Track endpoints closer than this share a junction (KiCad's 1nm grid).
const junctionResolution = 1e-6

type padPort struct {
	port   *soup.Port
	center Position
	pad    *Pad
}

type endpointRef struct {
	portID      string
	junctionKey string
}

// ToSoup converts a board into a soup.
//
// Pads become pcb_ports named "<reference>.<number>" with the same source
// port ID; repeated pad numbers get a "#n" suffix and are linked to the
// first pad of that number by a zero-length trace. Each track becomes a
// two-point pcb_trace whose ends reference the pad, via or junction they
// land on. Each named net becomes a source_trace listing its pads.
func ToSoup(b *Board, opts Options) soup.Soup {
	var (
		pads      []padPort
		vias      []*soup.Port
		links     []soup.Element
		netPads   = make(map[int][]string)
		seenPorts = make(map[string]int)
		firstPort = make(map[string]*soup.Port)
	)

	for i := range b.Footprints {
		fp := &b.Footprints[i]
		ref := b.footprintRef(i)

		for j := range fp.Pads {
			pad := &fp.Pads[j]
			if pad.Number == "" {
				// Mechanical pads have no electrical identity
				continue
			}

			sourceID := ref + "." + pad.Number
			center := fp.TransformPosition(pad.Position)
			port := &soup.Port{
				PortID:       sourceID,
				SourcePortID: sourceID,
				X:            center.X,
				Y:            center.Y,
				ComponentID:  ref,
				Layers:       slices.Clone([]string(pad.Layers)),
			}

			seenPorts[sourceID]++
			if n := seenPorts[sourceID]; n > 1 {
				port.PortID = fmt.Sprintf("%s#%d", sourceID, n)
				links = append(links, linkTrace(firstPort[sourceID], port))
			} else {
				firstPort[sourceID] = port
				if pad.Net != nil && pad.Net.Number != 0 {
					netPads[pad.Net.Number] = append(netPads[pad.Net.Number], sourceID)
				}
			}

			pads = append(pads, padPort{port: port, center: center, pad: pad})
		}
	}

	for i, via := range b.Vias {
		vias = append(vias, &soup.Port{
			PortID: fmt.Sprintf("%s%d", viaPortPrefix, i+1),
			X:      via.Position.X,
			Y:      via.Position.Y,
			Layers: slices.Clone([]string(via.Layers)),
		})
	}

	resolve := func(pt Position, layer string) endpointRef {
		for _, pp := range pads {
			if pp.pad.Layers.Contains(layer) && padContains(pp, pt) {
				return endpointRef{portID: pp.port.PortID}
			}
		}
		for i, via := range b.Vias {
			if pt.Distance(via.Position) <= math.Max(via.Size/2, junctionResolution) {
				return endpointRef{portID: vias[i].PortID}
			}
		}
		return endpointRef{junctionKey: junctionKey(pt, layer)}
	}

	type trackEnds struct{ start, end endpointRef }
	ends := make([]trackEnds, len(b.Tracks))
	junctionUse := make(map[string]int)
	var junctionOrder []string
	junctionPos := make(map[string]Position)

	for i, track := range b.Tracks {
		ends[i] = trackEnds{
			start: resolve(track.Start, track.Layer),
			end:   resolve(track.End, track.Layer),
		}
		for _, e := range []struct {
			ref endpointRef
			pos Position
		}{{ends[i].start, track.Start}, {ends[i].end, track.End}} {
			if e.ref.junctionKey == "" {
				continue
			}
			if junctionUse[e.ref.junctionKey] == 0 {
				junctionOrder = append(junctionOrder, e.ref.junctionKey)
				junctionPos[e.ref.junctionKey] = e.pos
			}
			junctionUse[e.ref.junctionKey]++
		}
	}

	// Only points shared by two or more track ends become junctions;
	// a lone end is left open.
	junctionIDs := make(map[string]string)
	var junctions []*soup.Port
	for _, key := range junctionOrder {
		if junctionUse[key] < 2 {
			continue
		}
		pos := junctionPos[key]
		port := &soup.Port{
			PortID: fmt.Sprintf("%s%d", junctionPortPrefix, len(junctions)+1),
			X:      pos.X,
			Y:      pos.Y,
		}
		junctionIDs[key] = port.PortID
		junctions = append(junctions, port)
	}

	portFor := func(ref endpointRef) string {
		if ref.portID != "" {
			return ref.portID
		}
		return junctionIDs[ref.junctionKey]
	}

	out := make(soup.Soup, 0, len(pads)+len(vias)+len(junctions)+len(links)+len(b.Tracks)+len(b.Nets))
	for _, pp := range pads {
		out = append(out, pp.port)
	}
	for _, v := range vias {
		out = append(out, v)
	}
	for _, j := range junctions {
		out = append(out, j)
	}
	out = append(out, links...)

	for i, track := range b.Tracks {
		out = append(out, &soup.Trace{
			TraceID: fmt.Sprintf("track:%d", i+1),
			Route: []soup.RouteSegment{
				{
					RouteType:   soup.RouteTypeWire,
					X:           track.Start.X,
					Y:           track.Start.Y,
					Width:       track.Width,
					Layer:       track.Layer,
					StartPortID: portFor(ends[i].start),
				},
				{
					RouteType: soup.RouteTypeWire,
					X:         track.End.X,
					Y:         track.End.Y,
					Width:     track.Width,
					Layer:     track.Layer,
					EndPortID: portFor(ends[i].end),
				},
			},
		})
	}

	for _, net := range b.Nets {
		if net.Number == 0 || net.Name == "" || len(netPads[net.Number]) == 0 {
			continue
		}
		if slices.Contains(opts.ExcludeNets, net.Name) {
			continue
		}
		if !opts.IncludeZoneNets && b.HasZone(net.Number) {
			continue
		}
		out = append(out, &soup.SourceTrace{
			SourceTraceID:          fmt.Sprintf("net:%d", net.Number),
			ConnectedSourcePortIDs: slices.Clone(netPads[net.Number]),
			ConnectedSourceNetIDs:  []string{net.Name},
		})
	}

	return out
}

// linkTrace joins two pads of the same footprint that share a pad number.
func linkTrace(from, to *soup.Port) *soup.Trace {
	return &soup.Trace{
		TraceID: "link:" + to.PortID,
		Route: []soup.RouteSegment{
			{RouteType: soup.RouteTypeWire, X: from.X, Y: from.Y, StartPortID: from.PortID},
			{RouteType: soup.RouteTypeWire, X: to.X, Y: to.Y, EndPortID: to.PortID},
		},
	}
}

// padContains reports whether pt lies on the pad's copper. Shapes other
// than circles are treated as their bounding rectangle.
func padContains(pp padPort, pt Position) bool {
	dx, dy := pt.X-pp.center.X, pt.Y-pp.center.Y
	halfW, halfH := pp.pad.Size.Width/2, pp.pad.Size.Height/2

	if pp.pad.Shape == "circle" {
		return math.Hypot(dx, dy) <= halfW+junctionResolution
	}

	// Pad angles in the file already include the footprint rotation
	if a := pp.pad.Position.Angle; a != 0 {
		rad := a.Radians()
		cos, sin := math.Cos(rad), math.Sin(rad)
		dx, dy = dx*cos-dy*sin, dx*sin+dy*cos
	}

	return math.Abs(dx) <= halfW+junctionResolution && math.Abs(dy) <= halfH+junctionResolution
}

func junctionKey(pt Position, layer string) string {
	return fmt.Sprintf("%s@%d,%d", layer,
		int64(math.Round(pt.X/junctionResolution)),
		int64(math.Round(pt.Y/junctionResolution)))
}
