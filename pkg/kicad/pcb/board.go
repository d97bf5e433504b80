package pcb

import (
	"fmt"
	"math"
)

// Board represents the connectivity-relevant content of a KiCad PCB
type Board struct {
	Version    int         // File format version
	Generator  string      // Generator info (e.g., "pcbnew")
	Nets       []Net       // Electrical nets
	Footprints []Footprint // Component footprints
	Tracks     []Track     // Track segments and arcs
	Vias       []Via       // Vias
	Zones      []Zone      // Copper zones
}

// Footprint represents a component footprint
type Footprint struct {
	Library   string        // Library name
	Name      string        // Footprint name
	Layer     string        // Layer (F.Cu or B.Cu typically)
	Position  PositionAngle // Position and rotation
	Pads      []Pad         // Pads
	Reference string        // Reference designator (e.g., "R1")
	Value     string        // Component value
}

// Pad represents a footprint pad
type Pad struct {
	Number   string        // Pad number/name
	Type     string        // Pad type (thru_hole, smd, etc.)
	Shape    string        // Pad shape (circle, rect, oval, etc.)
	Position PositionAngle // Position relative to the footprint
	Size     Size          // Pad size
	Drill    float64       // Drill diameter (0 for SMD)
	Layers   LayerSet      // Layers the pad appears on
	Net      *Net          // Connected net (if any)
}

// Track represents a copper track segment. Arcs are stored by their end
// points only.
type Track struct {
	Start  Position // Start point
	End    Position // End point
	Width  float64  // Track width in mm
	Layer  string   // Layer name
	Net    *Net     // Connected net
	Locked bool     // Whether track is locked
	Arc    bool     // Parsed from an (arc ...) node
}

// Via represents a via
type Via struct {
	Position Position // Via position
	Size     float64  // Via diameter
	Drill    float64  // Drill diameter
	Layers   LayerSet // Layer pair
	Net      *Net     // Connected net
	Locked   bool     // Whether via is locked
}

// Zone represents a copper zone. Only the net and layers are kept.
type Zone struct {
	Net    *Net
	Layers LayerSet
}

// PlacedPad is a pad at its absolute board position.
type PlacedPad struct {
	Name string // "<reference>.<number>"
	Pad  *Pad
	At   Position
}

// NetInfo gathers what the board attaches to one net.
type NetInfo struct {
	Net    Net
	Pads   []PlacedPad
	Tracks []*Track
	Vias   []*Via
	Zoned  bool
}

// NetIndex groups pads, tracks, vias and zones by net number in one pass.
// Every declared net has an entry, even when nothing is attached to it.
func (b *Board) NetIndex() map[int]*NetInfo {
	index := make(map[int]*NetInfo, len(b.Nets))
	for _, net := range b.Nets {
		index[net.Number] = &NetInfo{Net: net}
	}
	lookup := func(net *Net) *NetInfo {
		if net == nil {
			return nil
		}
		return index[net.Number]
	}

	for i := range b.Footprints {
		fp := &b.Footprints[i]
		ref := b.footprintRef(i)
		for j := range fp.Pads {
			pad := &fp.Pads[j]
			if info := lookup(pad.Net); info != nil {
				info.Pads = append(info.Pads, PlacedPad{
					Name: ref + "." + pad.Number,
					Pad:  pad,
					At:   fp.TransformPosition(pad.Position),
				})
			}
		}
	}
	for i := range b.Tracks {
		if info := lookup(b.Tracks[i].Net); info != nil {
			info.Tracks = append(info.Tracks, &b.Tracks[i])
		}
	}
	for i := range b.Vias {
		if info := lookup(b.Vias[i].Net); info != nil {
			info.Vias = append(info.Vias, &b.Vias[i])
		}
	}
	for _, z := range b.Zones {
		if info := lookup(z.Net); info != nil {
			info.Zoned = true
		}
	}
	return index
}

// LookupNet returns the connections of the named net, or nil if the board
// declares no such net.
func (b *Board) LookupNet(name string) *NetInfo {
	for _, net := range b.Nets {
		if net.Name == name {
			return b.NetIndex()[net.Number]
		}
	}
	return nil
}

// HasZone reports whether any zone is assigned to the net number.
func (b *Board) HasZone(netNumber int) bool {
	for _, z := range b.Zones {
		if z.Net != nil && z.Net.Number == netNumber {
			return true
		}
	}
	return false
}

// footprintRef falls back to a positional name for footprints without a
// reference designator.
func (b *Board) footprintRef(i int) string {
	if ref := b.Footprints[i].Reference; ref != "" {
		return ref
	}
	return fmt.Sprintf("FP%d", i+1)
}

// TransformPosition transforms a relative position by footprint position and rotation
func (fp *Footprint) TransformPosition(relPos PositionAngle) Position {
	x, y := relPos.X, relPos.Y

	// Apply footprint rotation (negated: KiCad's Y axis points down)
	if fp.Position.Angle != 0 {
		angleRad := -fp.Position.Angle.Radians()
		cos := math.Cos(angleRad)
		sin := math.Sin(angleRad)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return Position{X: x + fp.Position.X, Y: y + fp.Position.Y}
}
