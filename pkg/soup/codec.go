package soup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseFile reads a soup from a JSON file.
func ParseFile(filename string) (Soup, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a JSON array of tagged records.
//
// Only the outer document must be well formed. Fields with the wrong JSON type
// are left at their zero value, and records that are not objects or carry an
// unknown type tag are kept as Unknown.
func Parse(r io.Reader) (Soup, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		if errors.Is(err, io.EOF) {
			return Soup{}, nil
		}
		return nil, fmt.Errorf("failed to decode soup: %w", err)
	}

	s := make(Soup, 0, len(raws))
	for _, raw := range raws {
		s = append(s, decodeElement(raw))
	}
	return s, nil
}

// ParseYAML decodes a YAML sequence of tagged records. Records go through the
// same lenient decoding as Parse.
func ParseYAML(r io.Reader) (Soup, error) {
	var docs []any
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		if errors.Is(err, io.EOF) {
			return Soup{}, nil
		}
		return nil, fmt.Errorf("failed to decode yaml soup: %w", err)
	}

	s := make(Soup, 0, len(docs))
	for i, doc := range docs {
		raw, err := json.Marshal(jsonValue(doc))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		s = append(s, decodeElement(raw))
	}
	return s, nil
}

// jsonValue rewrites the map[any]any values yaml.v3 produces for mappings
// with non-string keys so encoding/json accepts them.
func jsonValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = jsonValue(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = jsonValue(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = jsonValue(item)
		}
		return t
	default:
		return v
	}
}

// Marshal encodes the soup as an indented JSON array.
func Marshal(s Soup) ([]byte, error) {
	if s == nil {
		s = Soup{}
	}
	return json.MarshalIndent(s, "", "  ")
}

func decodeElement(raw json.RawMessage) Element {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return &Unknown{Raw: raw}
	}

	var elem Element
	switch head.Type {
	case TypePort:
		elem = &Port{}
	case TypeTrace:
		elem = &Trace{}
	case TypeSourceTrace:
		elem = &SourceTrace{}
	default:
		return &Unknown{Type: head.Type, Raw: raw}
	}

	// encoding/json keeps filling the remaining fields after a type mismatch,
	// so the partially decoded record is what we want.
	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(raw, elem); err != nil && !errors.As(err, &typeErr) {
		return &Unknown{Type: head.Type, Raw: raw}
	}

	switch e := elem.(type) {
	case *Port:
		e.Extra = extraFields(raw, "type", "pcb_port_id", "source_port_id", "x", "y", "pcb_component_id", "layers")
	case *Trace:
		e.Extra = extraFields(raw, "type", "pcb_trace_id", "route")
		var route struct {
			Route []json.RawMessage `json:"route"`
		}
		if json.Unmarshal(raw, &route) == nil {
			for i := 0; i < len(route.Route) && i < len(e.Route); i++ {
				e.Route[i].Extra = extraFields(route.Route[i],
					"route_type", "x", "y", "width", "layer", "start_pcb_port_id", "end_pcb_port_id")
			}
		}
	case *SourceTrace:
		e.Extra = extraFields(raw, "type", "source_trace_id", "connected_source_port_ids", "connected_source_net_ids")
	}
	return elem
}
