package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

func init() {
	color.NoColor = true
}

const unjoinedSoup = `[
  {"type": "pcb_port", "pcb_port_id": "p1", "source_port_id": "s1", "x": 0, "y": 0},
  {"type": "pcb_port", "pcb_port_id": "p2", "source_port_id": "s2", "x": 5, "y": 0},
  {"type": "source_trace", "source_trace_id": "g1", "connected_source_port_ids": ["s1", "s2"]}
]`

const joinedSoup = `[
  {"type": "pcb_port", "pcb_port_id": "p1", "source_port_id": "s1", "x": 0, "y": 0},
  {"type": "pcb_port", "pcb_port_id": "p2", "source_port_id": "s2", "x": 5, "y": 0},
  {"type": "pcb_trace", "pcb_trace_id": "t1", "route": [
    {"route_type": "wire", "x": 0, "y": 0},
    {"route_type": "wire", "x": 5, "y": 0}
  ]},
  {"type": "source_trace", "source_trace_id": "g1", "connected_source_port_ids": ["s1", "s2"]}
]`

func checkResult(t *testing.T, source, input string) Result {
	t.Helper()
	s, err := soup.Parse(strings.NewReader(input))
	require.NoError(t, err)
	r, err := connectivity.Check(s, nil)
	require.NoError(t, err)
	return FromReport(source, r)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"text": FormatText,
		"JSON": FormatJSON,
		" yaml": FormatYAML,
		"":     FormatText,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestFromReport(t *testing.T) {
	ok := checkResult(t, "joined.json", joinedSoup)
	assert.True(t, ok.OK)
	assert.Empty(t, ok.Errors)
	assert.Equal(t, Summary{Ports: 2, Traces: 1, Requirements: 1, Classes: 1}, ok.Summary)

	bad := checkResult(t, "unjoined.json", unjoinedSoup)
	assert.False(t, bad.OK)
	require.Len(t, bad.Errors, 2)
	assert.Equal(t, "p1", bad.Errors[0].PortID)
	assert.Equal(t, "p2", bad.Errors[1].PortID)
}

func TestRenderText(t *testing.T) {
	results := []Result{
		checkResult(t, "joined.json", joinedSoup),
		checkResult(t, "unjoined.json", unjoinedSoup),
		FromFailure("missing.json", errors.New("file not found")),
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, results))
	out := buf.String()

	assert.Contains(t, out, "✓ joined.json (2 ports, 1 traces, 1 requirements)")
	assert.Contains(t, out, "✗ unjoined.json: 2 connectivity errors")
	assert.Contains(t, out, `[not_connected] pcb_port "p1"`)
	assert.Contains(t, out, "! missing.json: file not found")
	assert.Contains(t, out, "2 of 3 failed")
}

func TestRenderTextSingleResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, []Result{checkResult(t, "joined.json", joinedSoup)}))
	assert.NotContains(t, buf.String(), "passed")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, []Result{
		checkResult(t, "joined.json", joinedSoup),
		checkResult(t, "unjoined.json", unjoinedSoup),
	}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, true, decoded[0]["ok"])
	assert.Equal(t, []any{}, decoded[0]["errors"])

	errs, ok := decoded[1]["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 2)
	first := errs[0].(map[string]any)
	assert.Equal(t, "not_connected", first["kind"])
	assert.Equal(t, "p1", first["pcb_port_id"])
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, []Result{checkResult(t, "unjoined.json", unjoinedSoup)}))

	var decoded []Result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "unjoined.json", decoded[0].Source)
	require.Len(t, decoded[0].Errors, 2)
	assert.Equal(t, connectivity.KindNotConnected, decoded[0].Errors[1].Kind)
	assert.Equal(t, []string{"g1"}, decoded[0].Errors[1].SourceTraceIDs)
}

func TestRenderClasses(t *testing.T) {
	classes := []connectivity.Class{{ID: 1, Ports: []string{"p1", "p2"}}}

	var buf bytes.Buffer
	require.NoError(t, RenderClasses(&buf, FormatText, classes))
	assert.Equal(t, "Found 1 connected classes:\n  class 1 (2 ports): p1, p2\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderClasses(&buf, FormatJSON, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestRenderUnknownFormat(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, Format("xml"), nil))
	assert.Error(t, RenderClasses(&bytes.Buffer{}, Format("xml"), nil))
}
