package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/kicad/sexp"
)

// parseSegment extracts a track segment (copper trace)
// Expected format: (segment (start x y) (end x y) (width w) (layer "layer") (net n) ...)
// Arcs use the same layout plus (mid x y), which is ignored.
func parseSegment(node *sexp.Node, netMap *NetMap) (*Track, error) {
	track := &Track{
		Width: 0.15, // Default width
	}

	startNode, found := sexp.FindNode(node, "start")
	if !found {
		return nil, fmt.Errorf("missing required 'start' position")
	}
	start, err := parsePosition(startNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start position: %w", err)
	}
	track.Start = start

	endNode, found := sexp.FindNode(node, "end")
	if !found {
		return nil, fmt.Errorf("missing required 'end' position")
	}
	end, err := parsePosition(endNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end position: %w", err)
	}
	track.End = end

	if widthNode, found := sexp.FindNode(node, "width"); found {
		width, err := sexp.GetFloat(widthNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse width: %w", err)
		}
		track.Width = width
	}

	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	layer, err := sexp.GetString(layerNode, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layer: %w", err)
	}
	track.Layer = layer

	track.Net = parseNetRef(node, netMap)

	// Older files write (locked), newer ones (locked yes)
	if _, found := sexp.FindNode(node, "locked"); found || sexp.HasSymbol(node, "locked") {
		track.Locked = true
	}

	return track, nil
}

// parseVia extracts a via definition
// Expected format: (via (at x y) (size diameter) (drill diameter) (layers "L1" "L2") (net n) ...)
func parseVia(node *sexp.Node, netMap *NetMap) (*Via, error) {
	via := &Via{}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	pos, err := parsePosition(atNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse position: %w", err)
	}
	via.Position = pos

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	size, err := sexp.GetFloat(sizeNode, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse size: %w", err)
	}
	via.Size = size

	if drillNode, found := sexp.FindNode(node, "drill"); found {
		drill, err := sexp.GetFloat(drillNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse drill: %w", err)
		}
		via.Drill = drill
	}

	layersNode, found := sexp.FindNode(node, "layers")
	if !found {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	via.Layers = parseLayerSet(layersNode)

	via.Net = parseNetRef(node, netMap)

	if _, found := sexp.FindNode(node, "locked"); found || sexp.HasSymbol(node, "locked") {
		via.Locked = true
	}

	return via, nil
}

// parseTracks extracts all (segment ...) and (arc ...) nodes from the root node
func parseTracks(root *sexp.Node, netMap *NetMap) ([]Track, error) {
	var tracks []Track

	for i, segmentNode := range sexp.FindAllNodes(root, "segment") {
		track, err := parseSegment(segmentNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		tracks = append(tracks, *track)
	}

	for i, arcNode := range sexp.FindAllNodes(root, "arc") {
		track, err := parseSegment(arcNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("arc %d: %w", i, err)
		}
		track.Arc = true
		tracks = append(tracks, *track)
	}

	return tracks, nil
}

// parseVias extracts all via definitions from the root node
func parseVias(root *sexp.Node, netMap *NetMap) ([]Via, error) {
	var vias []Via

	for i, viaNode := range sexp.FindAllNodes(root, "via") {
		via, err := parseVia(viaNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("via %d: %w", i, err)
		}
		vias = append(vias, *via)
	}

	return vias, nil
}
