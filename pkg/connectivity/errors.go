package connectivity

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Kind classifies a ConnectivityError.
type Kind string

const (
	// KindNotConnected means a port does not share copper with the ports its
	// requirement group lists.
	KindNotConnected Kind = "not_connected"

	// KindDanglingReference means a trace names a port that does not exist.
	// Only reported when Config.ReportDanglingReferences is set.
	KindDanglingReference Kind = "dangling_reference"
)

// ConnectivityError describes one unsatisfied requirement. Message always
// contains PortID verbatim.
type ConnectivityError struct {
	Kind           Kind     `json:"kind" yaml:"kind"`
	Message        string   `json:"message" yaml:"message"`
	PortID         string   `json:"pcb_port_id" yaml:"pcb_port_id"`
	TraceID        string   `json:"pcb_trace_id,omitempty" yaml:"pcb_trace_id,omitempty"`
	SourceTraceIDs []string `json:"source_trace_ids,omitempty" yaml:"source_trace_ids,omitempty"`
}

func (e ConnectivityError) Error() string {
	return e.Message
}

func notConnectedError(port, partner *soup.Port, req Requirement) ConnectivityError {
	var b strings.Builder
	fmt.Fprintf(&b, "pcb_port %q", port.PortID)
	if port.SourcePortID != "" {
		fmt.Fprintf(&b, " (source port %q)", port.SourcePortID)
	}
	fmt.Fprintf(&b, " is not connected to pcb_port %q", partner.PortID)
	if len(req.GroupIDs) > 0 {
		fmt.Fprintf(&b, " as required by source_trace %s", strings.Join(req.GroupIDs, ", "))
	}

	return ConnectivityError{
		Kind:           KindNotConnected,
		Message:        b.String(),
		PortID:         port.PortID,
		SourceTraceIDs: req.GroupIDs,
	}
}

func danglingError(ref DanglingReference) ConnectivityError {
	return ConnectivityError{
		Kind: KindDanglingReference,
		Message: fmt.Sprintf("pcb_trace %q segment %d %s references nonexistent pcb_port %q",
			ref.TraceID, ref.Segment, ref.Endpoint, ref.PortID),
		PortID:  ref.PortID,
		TraceID: ref.TraceID,
	}
}
