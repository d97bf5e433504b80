package soup

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const sampleSoup = `[
  {"type": "pcb_port", "pcb_port_id": "port1", "source_port_id": "source1", "x": 0, "y": 0, "pcb_component_id": "comp1", "layers": ["top"]},
  {"type": "schematic_box", "x": 1},
  {"type": "pcb_trace", "pcb_trace_id": "trace1", "route": [
    {"route_type": "wire", "x": 0, "y": 0, "width": 0.1, "layer": "top", "start_pcb_port_id": "port1"},
    {"route_type": "wire", "x": 4, "y": 4, "width": 0.1, "layer": "top"}
  ]},
  {"type": "pcb_port", "pcb_port_id": "port2", "source_port_id": "source2", "x": 4, "y": 4},
  {"type": "source_trace", "source_trace_id": "st1", "connected_source_port_ids": ["source1", "source2"], "connected_source_net_ids": ["net1"]}
]`

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleSoup))
	require.NoError(t, err)
	require.Len(t, s, 5)

	idx := Index(s)
	require.Len(t, idx.Ports, 2)
	require.Len(t, idx.Traces, 1)
	require.Len(t, idx.Groups, 1)

	if diff := cmp.Diff([]string{"port1", "port2"}, []string{idx.Ports[0].PortID, idx.Ports[1].PortID}); diff != "" {
		t.Errorf("port order mismatch (-want +got):\n%s", diff)
	}

	trace := idx.Traces[0]
	require.Equal(t, "trace1", trace.TraceID)
	require.Len(t, trace.Route, 2)
	require.Equal(t, "port1", trace.Route[0].StartPortID)
	require.Empty(t, trace.Route[1].EndPortID)

	require.Equal(t, []string{"net1"}, idx.Groups[0].ConnectedSourceNetIDs)

	unknown, ok := s[1].(*Unknown)
	require.True(t, ok, "schematic_box should decode as Unknown")
	require.Equal(t, "schematic_box", unknown.ElementType())
}

func TestParseEmpty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty array", "[]"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Empty(t, s)
		})
	}
}

func TestParseRejectsNonArray(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"type": "pcb_port"}`))
	require.Error(t, err)
}

func TestParseMalformedFieldIsAbsent(t *testing.T) {
	input := `[
	  {"type": "pcb_port", "pcb_port_id": "port1", "x": "not-a-number", "y": 2},
	  {"type": "pcb_trace", "pcb_trace_id": "t1", "route": [{"x": 1, "y": 1, "start_pcb_port_id": 7}]},
	  42
	]`

	s, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s, 3)

	port, ok := s[0].(*Port)
	require.True(t, ok)
	require.Equal(t, "port1", port.PortID)
	require.Zero(t, port.X)
	require.Equal(t, 2.0, port.Y)

	trace, ok := s[1].(*Trace)
	require.True(t, ok)
	require.Len(t, trace.Route, 1)
	require.Empty(t, trace.Route[0].StartPortID)
	require.Equal(t, 1.0, trace.Route[0].X)

	_, ok = s[2].(*Unknown)
	require.True(t, ok)
}

func TestParseYAML(t *testing.T) {
	input := `
- type: pcb_port
  pcb_port_id: port1
  source_port_id: source1
  x: 0
  y: 0
- type: source_trace
  source_trace_id: st1
  connected_source_port_ids: [source1]
`
	s, err := ParseYAML(strings.NewReader(input))
	require.NoError(t, err)

	idx := Index(s)
	require.Len(t, idx.Ports, 1)
	require.Equal(t, "source1", idx.Ports[0].SourcePortID)
	require.Len(t, idx.Groups, 1)
	require.Equal(t, []string{"source1"}, idx.Groups[0].ConnectedSourcePortIDs)
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleSoup))
	require.NoError(t, err)

	data, err := Marshal(s)
	require.NoError(t, err)

	again, err := Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, again, len(s))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Equal(t, "pcb_port", records[0]["type"])
	require.Equal(t, "schematic_box", records[1]["type"])
	require.Equal(t, "pcb_trace", records[2]["type"])
	require.Equal(t, "source_trace", records[4]["type"])

	if diff := cmp.Diff(Index(s).Traces[0], Index(again).Traces[0]); diff != "" {
		t.Errorf("trace changed across round trip (-want +got):\n%s", diff)
	}
}

func TestMarshalKeepsExtraFields(t *testing.T) {
	input := `[
	  {"type": "pcb_port", "pcb_port_id": "p1", "x": 1, "y": 2, "pcb_port_extra": {"note": "kept"}},
	  {"type": "pcb_trace", "pcb_trace_id": "t1", "source_trace_id": "st1", "route": [
	    {"route_type": "wire", "x": 1, "y": 2, "layer": "top"},
	    {"route_type": "via", "x": 3, "y": 2, "from_layer": "top", "to_layer": "bottom"}
	  ]},
	  {"type": "source_trace", "source_trace_id": "st1", "connected_source_port_ids": [], "display_name": "GND"}
	]`
	s, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	idx := Index(s)
	require.Contains(t, idx.Ports[0].Extra, "pcb_port_extra")
	require.NotContains(t, idx.Ports[0].Extra, "pcb_port_id")
	require.Nil(t, idx.Traces[0].Route[0].Extra)

	idx.Traces[0].Route[0].StartPortID = "p1"
	data, err := Marshal(s)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))

	want := []map[string]any{
		{"type": "pcb_port", "pcb_port_id": "p1", "x": 1.0, "y": 2.0, "pcb_port_extra": map[string]any{"note": "kept"}},
		{"type": "pcb_trace", "pcb_trace_id": "t1", "source_trace_id": "st1", "route": []any{
			map[string]any{"route_type": "wire", "x": 1.0, "y": 2.0, "layer": "top", "start_pcb_port_id": "p1"},
			map[string]any{"route_type": "via", "x": 3.0, "y": 2.0, "from_layer": "top", "to_layer": "bottom"},
		}},
		{"type": "source_trace", "source_trace_id": "st1", "connected_source_port_ids": []any{}, "display_name": "GND"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("written soup mismatch (-want +got):\n%s", diff)
	}
}

func TestExtraFieldsDoNotOverrideTypedFields(t *testing.T) {
	p := &Port{PortID: "p1", Extra: map[string]json.RawMessage{
		"pcb_port_id": json.RawMessage(`"stale"`),
		"note":        json.RawMessage(`"kept"`),
	}}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "p1", got["pcb_port_id"])
	require.Equal(t, "kept", got["note"])
}

func TestParseYAMLNonMappingRecord(t *testing.T) {
	input := `
- 42
- type: pcb_port
  pcb_port_id: port1
  x: 0
  y: 0
  meta:
    1: one
`
	s, err := ParseYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s, 2)

	_, ok := s[0].(*Unknown)
	require.True(t, ok, "non-mapping record should decode as Unknown")

	idx := Index(s)
	require.Len(t, idx.Ports, 1)
	require.JSONEq(t, `{"1": "one"}`, string(idx.Ports[0].Extra["meta"]))
}

func TestCloneIsDeep(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleSoup))
	require.NoError(t, err)

	c := s.Clone()
	idx := Index(c)
	idx.Traces[0].Route[1].EndPortID = "port2"
	idx.Ports[0].Layers[0] = "bottom"
	idx.Groups[0].ConnectedSourcePortIDs[0] = "changed"
	idx.Traces[0].Route[0].Extra = map[string]json.RawMessage{"note": json.RawMessage(`1`)}

	orig := Index(s)
	require.Empty(t, orig.Traces[0].Route[1].EndPortID)
	require.Equal(t, "top", orig.Ports[0].Layers[0])
	require.Equal(t, "source1", orig.Groups[0].ConnectedSourcePortIDs[0])
	require.Nil(t, orig.Traces[0].Route[0].Extra)
}

func TestPortByID(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleSoup))
	require.NoError(t, err)

	idx := Index(s)
	require.NotNil(t, idx.PortByID("port2"))
	require.Nil(t, idx.PortByID("missing"))
}

func TestPointDistance(t *testing.T) {
	require.InDelta(t, 5.0, Point{X: 0, Y: 0}.Distance(Point{X: 3, Y: 4}), 1e-12)
}
