package pcb

import (
	"math"
	"strings"
	"testing"
)

const testBoard = `(kicad_pcb (version 20221018) (generator pcbnew)
  (general (thickness 1.6))
  (net 0 "")
  (net 1 "GND")
  (net 2 "SIG")
  (net 3 "VCC")
  (footprint "Resistor_SMD:R_0603_1608Metric" (layer "F.Cu") (at 10 10)
    (property "Reference" "R1" (at 0 -1.5 0) (layer "F.SilkS"))
    (property "Value" "10k" (at 0 1.5 0) (layer "F.Fab"))
    (fp_line (start -1 -1) (end 1 -1) (layer "F.SilkS") (width 0.12))
    (pad "1" smd rect (at 0 -1) (size 0.8 0.9) (layers "F.Cu" "F.Paste" "F.Mask") (net 2 "SIG"))
    (pad "2" smd rect (at 0 1) (size 0.8 0.9) (layers "F.Cu" "F.Paste" "F.Mask") (net 1 "GND")))
  (footprint "Connector_PinHeader_2.54mm:PinHeader_1x02" (layer "F.Cu") (at 20 10 90)
    (fp_text reference "J1" (at 0 -2.33 90) (layer "F.SilkS"))
    (fp_text value "CONN" (at 0 4.87 90) (layer "F.Fab"))
    (pad "1" thru_hole circle (at 0 -1 90) (size 1.7 1.7) (drill 1) (layers "*.Cu" "*.Mask") (net 2 "SIG"))
    (pad "2" thru_hole circle (at 0 1 90) (size 1.7 1.7) (drill 1) (layers "*.Cu" "*.Mask") (net 1 "GND")))
  (segment (start 10 9) (end 15 5) (width 0.25) (layer "F.Cu") (net 2))
  (segment (start 15 5) (end 19 10) (width 0.25) (layer "F.Cu") (net 2) (locked yes))
  (segment (start 10 11) (end 12 14) (width 0.25) (layer "F.Cu") (net 1))
  (via (at 12 14) (size 0.8) (drill 0.4) (layers "F.Cu" "B.Cu") (net 1))
  (segment (start 12 14) (end 21 14) (width 0.25) (layer "B.Cu") (net 1))
  (zone (net 3) (net_name "VCC") (layer "B.Cu"))
)`

func TestParse(t *testing.T) {
	board, err := Parse(strings.NewReader(testBoard))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	if board.Version != 20221018 {
		t.Errorf("Version = %d, want 20221018", board.Version)
	}
	if board.Generator != "pcbnew" {
		t.Errorf("Generator = %q, want pcbnew", board.Generator)
	}
	if len(board.Nets) != 4 {
		t.Errorf("Nets = %d, want 4", len(board.Nets))
	}
	if len(board.Footprints) != 2 {
		t.Fatalf("Footprints = %d, want 2", len(board.Footprints))
	}
	if len(board.Tracks) != 4 {
		t.Errorf("Tracks = %d, want 4", len(board.Tracks))
	}
	if len(board.Vias) != 1 {
		t.Errorf("Vias = %d, want 1", len(board.Vias))
	}
	if len(board.Zones) != 1 || board.Zones[0].Net == nil || board.Zones[0].Net.Name != "VCC" {
		t.Errorf("Zones = %+v, want one VCC zone", board.Zones)
	}

	r1 := board.Footprints[0]
	if r1.Reference != "R1" || r1.Value != "10k" {
		t.Errorf("R1 reference/value = %q/%q", r1.Reference, r1.Value)
	}
	if r1.Library != "Resistor_SMD" || r1.Name != "R_0603_1608Metric" {
		t.Errorf("R1 library/name = %q/%q", r1.Library, r1.Name)
	}
	if len(r1.Pads) != 2 {
		t.Fatalf("R1 pads = %d, want 2", len(r1.Pads))
	}
	if r1.Pads[0].Net == nil || r1.Pads[0].Net.Name != "SIG" {
		t.Errorf("R1 pad 1 net = %v, want SIG", r1.Pads[0].Net)
	}
	if r1.Pads[0].Size != (Size{Width: 0.8, Height: 0.9}) {
		t.Errorf("R1 pad 1 size = %+v", r1.Pads[0].Size)
	}

	j1 := board.Footprints[1]
	if j1.Reference != "J1" || j1.Value != "CONN" {
		t.Errorf("J1 reference/value from fp_text = %q/%q", j1.Reference, j1.Value)
	}
	if j1.Position.Angle != 90 {
		t.Errorf("J1 angle = %v, want 90", j1.Position.Angle)
	}
	if j1.Pads[0].Drill != 1 {
		t.Errorf("J1 pad drill = %v, want 1", j1.Pads[0].Drill)
	}

	if !board.Tracks[1].Locked {
		t.Errorf("second track should be locked")
	}
	if board.Tracks[3].Layer != "B.Cu" {
		t.Errorf("last track layer = %q, want B.Cu", board.Tracks[3].Layer)
	}

	via := board.Vias[0]
	if via.Position != (Position{X: 12, Y: 14}) || via.Size != 0.8 || via.Drill != 0.4 {
		t.Errorf("via = %+v", via)
	}
	if via.Net == nil || via.Net.Name != "GND" {
		t.Errorf("via net = %v, want GND", via.Net)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a board", `(kicad_sch (version 20230121))`},
		{"missing version", `(kicad_pcb (generator pcbnew))`},
		{"old version", `(kicad_pcb (version 20171130) (host pcbnew "5.1"))`},
		{"bad net number", `(kicad_pcb (version 20221018) (net x "GND"))`},
		{"segment without layer", `(kicad_pcb (version 20221018) (segment (start 0 0) (end 1 1)))`},
		{"via without size", `(kicad_pcb (version 20221018) (via (at 0 0) (layers "F.Cu" "B.Cu")))`},
		{"pad without at", `(kicad_pcb (version 20221018) (footprint "X" (layer "F.Cu") (at 0 0) (pad "1" smd rect (size 1 1) (layers "F.Cu"))))`},
		{"unbalanced", `(kicad_pcb (version 20221018)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Parse() expected error, got nil")
			}
		})
	}
}

func TestParseHostGenerator(t *testing.T) {
	board, err := Parse(strings.NewReader(`(kicad_pcb (version 20211014) (host pcbnew "(6.0.0)"))`))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if board.Generator != "pcbnew" {
		t.Errorf("Generator = %q, want pcbnew", board.Generator)
	}
	if len(board.Footprints) != 0 || len(board.Tracks) != 0 {
		t.Errorf("empty board should have no footprints or tracks")
	}
}

func TestParseArc(t *testing.T) {
	board, err := Parse(strings.NewReader(`(kicad_pcb (version 20221018)
		(net 0 "") (net 1 "A")
		(arc (start 0 0) (mid 1 1) (end 2 0) (width 0.2) (layer "F.Cu") (net 1)))`))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(board.Tracks) != 1 {
		t.Fatalf("Tracks = %d, want 1", len(board.Tracks))
	}
	track := board.Tracks[0]
	if !track.Arc || track.End != (Position{X: 2, Y: 0}) || track.Net == nil || track.Net.Name != "A" {
		t.Errorf("arc track = %+v", track)
	}
}

func TestTransformPosition(t *testing.T) {
	tests := []struct {
		name string
		fp   PositionAngle
		pad  PositionAngle
		want Position
	}{
		{"no rotation", PositionAngle{Position: Position{X: 10, Y: 10}}, PositionAngle{Position: Position{X: 1, Y: 0}}, Position{X: 11, Y: 10}},
		{"rotated 90", PositionAngle{Position: Position{X: 20, Y: 10}, Angle: 90}, PositionAngle{Position: Position{X: 0, Y: -1}}, Position{X: 19, Y: 10}},
		{"rotated 180", PositionAngle{Position: Position{X: 0, Y: 0}, Angle: 180}, PositionAngle{Position: Position{X: 2, Y: 1}}, Position{X: -2, Y: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &Footprint{Position: tt.fp}
			got := fp.TransformPosition(tt.pad)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("TransformPosition() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLayerSetContains(t *testing.T) {
	tests := []struct {
		set   LayerSet
		layer string
		want  bool
	}{
		{LayerSet{"F.Cu", "F.Mask"}, "F.Cu", true},
		{LayerSet{"F.Cu", "F.Mask"}, "B.Cu", false},
		{LayerSet{"*.Cu", "*.Mask"}, "In1.Cu", true},
		{LayerSet{"*.Mask"}, "F.Cu", false},
		{LayerSet{"F&B.Cu"}, "B.Cu", true},
		{nil, "F.Cu", false},
	}

	for _, tt := range tests {
		if got := tt.set.Contains(tt.layer); got != tt.want {
			t.Errorf("%v.Contains(%q) = %v, want %v", tt.set, tt.layer, got, tt.want)
		}
	}
}

func TestLookupNet(t *testing.T) {
	board, err := Parse(strings.NewReader(testBoard))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	info := board.LookupNet("GND")
	if info == nil {
		t.Fatalf("LookupNet(GND) = nil")
	}
	if len(info.Pads) != 2 || len(info.Tracks) != 2 || len(info.Vias) != 1 {
		t.Errorf("GND info = %d pads, %d tracks, %d vias", len(info.Pads), len(info.Tracks), len(info.Vias))
	}
	if info.Pads[0].Name != "R1.2" || info.Pads[0].At != (Position{X: 10, Y: 11}) {
		t.Errorf("first GND pad = %s at %+v", info.Pads[0].Name, info.Pads[0].At)
	}
	if info.Zoned {
		t.Errorf("GND should not be zoned")
	}
	if board.LookupNet("NOPE") != nil {
		t.Errorf("LookupNet(NOPE) should be nil")
	}
}

func TestNetIndex(t *testing.T) {
	board, err := Parse(strings.NewReader(testBoard))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	index := board.NetIndex()
	if len(index) != len(board.Nets) {
		t.Fatalf("NetIndex() has %d nets, want %d", len(index), len(board.Nets))
	}
	if vcc := index[3]; vcc == nil || !vcc.Zoned || len(vcc.Pads) != 0 {
		t.Errorf("VCC entry = %+v, want zoned with no pads", vcc)
	}
	if !board.HasZone(3) || board.HasZone(1) {
		t.Errorf("HasZone mismatch")
	}
}
