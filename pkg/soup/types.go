package soup

import (
	"encoding/json"
	"math"
)

// Record type tags understood by the checker.
const (
	TypePort        = "pcb_port"
	TypeTrace       = "pcb_trace"
	TypeSourceTrace = "source_trace"
)

// RouteTypeWire is the only route_type the checker follows.
const RouteTypeWire = "wire"

// Element is one tagged record of a soup.
type Element interface {
	ElementType() string
}

// Soup is a flat, unordered collection of records describing one design.
type Soup []Element

// Point is a board position in millimetres.
type Point struct {
	X float64
	Y float64
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Port is a physical connection point on the board (a pad or pin).
type Port struct {
	PortID       string   `json:"pcb_port_id"`
	SourcePortID string   `json:"source_port_id,omitempty"` // Logical (schematic) id
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	ComponentID  string   `json:"pcb_component_id,omitempty"`
	Layers       []string `json:"layers,omitempty"`

	// Extra holds fields the checker does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

func (p *Port) ElementType() string { return TypePort }

// Position returns the port location.
func (p *Port) Position() Point { return Point{X: p.X, Y: p.Y} }

// MarshalJSON emits the port with its type tag.
func (p *Port) MarshalJSON() ([]byte, error) {
	type plain Port
	return marshalWithExtra(struct {
		Type string `json:"type"`
		plain
	}{TypePort, plain(*p)}, p.Extra)
}

// RouteSegment is one vertex of a trace route. Start and end references are
// optional; when absent they are inferred from geometry.
type RouteSegment struct {
	RouteType   string  `json:"route_type,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width,omitempty"`
	Layer       string  `json:"layer,omitempty"`
	StartPortID string  `json:"start_pcb_port_id,omitempty"`
	EndPortID   string  `json:"end_pcb_port_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON emits the segment followed by any fields kept from decoding.
func (s RouteSegment) MarshalJSON() ([]byte, error) {
	type plain RouteSegment
	return marshalWithExtra(plain(s), s.Extra)
}

// Position returns the segment location.
func (s *RouteSegment) Position() Point { return Point{X: s.X, Y: s.Y} }

// Trace is one continuous piece of routed copper.
type Trace struct {
	TraceID string         `json:"pcb_trace_id"`
	Route   []RouteSegment `json:"route"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (t *Trace) ElementType() string { return TypeTrace }

// MarshalJSON emits the trace with its type tag.
func (t *Trace) MarshalJSON() ([]byte, error) {
	type plain Trace
	return marshalWithExtra(struct {
		Type string `json:"type"`
		plain
	}{TypeTrace, plain(*t)}, t.Extra)
}

// SourceTrace is a requirement group: every listed source port must end up on
// the same copper. Listed nets join groups transitively.
type SourceTrace struct {
	SourceTraceID          string   `json:"source_trace_id"`
	ConnectedSourcePortIDs []string `json:"connected_source_port_ids"`
	ConnectedSourceNetIDs  []string `json:"connected_source_net_ids,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *SourceTrace) ElementType() string { return TypeSourceTrace }

// MarshalJSON emits the requirement group with its type tag.
func (s *SourceTrace) MarshalJSON() ([]byte, error) {
	type plain SourceTrace
	return marshalWithExtra(struct {
		Type string `json:"type"`
		plain
	}{TypeSourceTrace, plain(*s)}, s.Extra)
}

// Unknown holds a record the checker does not interpret. It is kept verbatim
// so annotated soups round-trip without loss.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (u *Unknown) ElementType() string { return u.Type }

// MarshalJSON re-emits the original bytes.
func (u *Unknown) MarshalJSON() ([]byte, error) {
	if len(u.Raw) == 0 {
		return []byte("null"), nil
	}
	return u.Raw, nil
}

// marshalWithExtra encodes v and adds the extra fields it does not already
// set. Typed fields win over kept ones with the same key.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	fields := make(map[string]json.RawMessage, len(extra)+8)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

// extraFields returns the members of a JSON object whose keys are not
// listed in known, or nil when there are none.
func extraFields(raw json.RawMessage, known ...string) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	for _, k := range known {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
