package soup

import "maps"

// Indexed is a soup partitioned by record type. Slices keep the original
// relative order and point into the soup they were built from.
type Indexed struct {
	Ports  []*Port
	Traces []*Trace
	Groups []*SourceTrace
}

// Index partitions a soup into ports, traces and requirement groups.
// Records of any other type are ignored.
func Index(s Soup) *Indexed {
	idx := &Indexed{}
	for _, elem := range s {
		switch e := elem.(type) {
		case *Port:
			idx.Ports = append(idx.Ports, e)
		case *Trace:
			idx.Traces = append(idx.Traces, e)
		case *SourceTrace:
			idx.Groups = append(idx.Groups, e)
		}
	}
	return idx
}

// PortByID returns the port with the given physical id, or nil.
func (idx *Indexed) PortByID(id string) *Port {
	for _, p := range idx.Ports {
		if p.PortID == id {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy of the soup. Callers that want to hand the same
// design to several goroutines that modify it should clone first.
func (s Soup) Clone() Soup {
	if s == nil {
		return nil
	}
	out := make(Soup, len(s))
	for i, elem := range s {
		out[i] = CloneElement(elem)
	}
	return out
}

// CloneElement deep-copies a single record.
func CloneElement(elem Element) Element {
	switch e := elem.(type) {
	case *Port:
		p := *e
		p.Layers = cloneStrings(e.Layers)
		p.Extra = maps.Clone(e.Extra)
		return &p
	case *Trace:
		return e.Clone()
	case *SourceTrace:
		st := *e
		st.ConnectedSourcePortIDs = cloneStrings(e.ConnectedSourcePortIDs)
		st.ConnectedSourceNetIDs = cloneStrings(e.ConnectedSourceNetIDs)
		st.Extra = maps.Clone(e.Extra)
		return &st
	case *Unknown:
		u := *e
		u.Raw = append([]byte(nil), e.Raw...)
		return &u
	default:
		return elem
	}
}

// Clone returns a copy of the trace with its own route slice.
func (t *Trace) Clone() *Trace {
	c := *t
	c.Extra = maps.Clone(t.Extra)
	if t.Route != nil {
		c.Route = make([]RouteSegment, len(t.Route))
		for i, seg := range t.Route {
			seg.Extra = maps.Clone(seg.Extra)
			c.Route[i] = seg
		}
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
