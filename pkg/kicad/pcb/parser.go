package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/kicad/sexp"
)

// Minimum supported KiCad version (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad board from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	nodes, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	// The root should be a (kicad_pcb ...) expression
	root := nodes[0]

	rootName, err := sexp.GetNodeName(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root node name: %w", err)
	}

	if rootName != "kicad_pcb" || root.IsLeaf() {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", rootName)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	board := &Board{
		Version:   version,
		Generator: generator,
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets

	// Create net map for lookups
	netMap := NewNetMap(board.Nets)

	tracks, err := parseTracks(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracks: %w", err)
	}
	board.Tracks = tracks

	vias, err := parseVias(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vias: %w", err)
	}
	board.Vias = vias

	footprints, err := parseFootprints(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprints: %w", err)
	}
	board.Footprints = footprints

	board.Zones = parseZones(root, netMap)

	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root *sexp.Node) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	// Validate version (must be KiCad 6.0 or later)
	if ver < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}

	gen := "unknown"
	if hostNode, found := sexp.FindNode(root, "host"); found {
		// Format: (host pcbnew "(6.0.0)")
		if toolName, err := sexp.GetString(hostNode, 1); err == nil {
			gen = toolName
		}
	} else if genNode, found := sexp.FindNode(root, "generator"); found {
		// Newer format: (generator "pcbnew")
		if generatorName, err := sexp.GetString(genNode, 1); err == nil {
			gen = generatorName
		}
	}

	return ver, gen, nil
}

// parseNets extracts net definitions from the root node
// Expected format: (net 0 "") (net 1 "GND") (net 2 "+5V") ...
func parseNets(root *sexp.Node) ([]Net, error) {
	netNodes := sexp.FindAllNodes(root, "net")
	nets := make([]Net, 0, len(netNodes))

	for _, netNode := range netNodes {
		number, err := sexp.GetInt(netNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net number: %w", err)
		}

		// Name is optional (net 0 often has empty name)
		name, _ := sexp.GetString(netNode, 2)

		nets = append(nets, Net{Number: number, Name: name})
	}

	return nets, nil
}

// parseZones extracts the net assignment of every zone
// Expected format: (zone (net 1) (net_name "GND") (layer "F.Cu") ...)
func parseZones(root *sexp.Node, netMap *NetMap) []Zone {
	zoneNodes := sexp.FindAllNodes(root, "zone")
	zones := make([]Zone, 0, len(zoneNodes))

	for _, zoneNode := range zoneNodes {
		zone := Zone{Net: parseNetRef(zoneNode, netMap)}
		if layerNode, found := sexp.FindNode(zoneNode, "layer"); found {
			if layer, err := sexp.GetString(layerNode, 1); err == nil {
				zone.Layers = LayerSet{layer}
			}
		} else if layersNode, found := sexp.FindNode(zoneNode, "layers"); found {
			zone.Layers = parseLayerSet(layersNode)
		}
		zones = append(zones, zone)
	}

	return zones
}

// parsePosition reads (key x y) into a Position
func parsePosition(node *sexp.Node) (Position, error) {
	x, err := sexp.GetFloat(node, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X: %w", err)
	}
	y, err := sexp.GetFloat(node, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y: %w", err)
	}
	return Position{X: x, Y: y}, nil
}

// parsePositionAngle reads (at x y [angle])
func parsePositionAngle(node *sexp.Node) (PositionAngle, error) {
	pos, err := parsePosition(node)
	if err != nil {
		return PositionAngle{}, err
	}
	pa := PositionAngle{Position: pos}
	// Angle is optional
	if angle, err := sexp.GetFloat(node, 3); err == nil {
		pa.Angle = Angle(angle)
	}
	return pa, nil
}

// parseLayerSet reads (layers "F.Cu" "B.Cu" ...)
func parseLayerSet(node *sexp.Node) LayerSet {
	var layers LayerSet
	for _, item := range sexp.GetListItems(node) {
		if item.IsLeaf() && item.Atom != "" {
			layers = append(layers, item.Atom)
		}
	}
	return layers
}

// parseNetRef resolves (net n ["name"]) inside node. Pads in newer files
// carry the name too; it is used when the number is not in the net table.
func parseNetRef(node *sexp.Node, netMap *NetMap) *Net {
	netNode, found := sexp.FindNode(node, "net")
	if !found || netMap == nil {
		return nil
	}

	if netNum, err := sexp.GetInt(netNode, 1); err == nil {
		if net, ok := netMap.GetByNumber(netNum); ok {
			return net
		}
	}
	if name, err := sexp.GetString(netNode, 2); err == nil {
		if net, ok := netMap.GetByName(name); ok {
			return net
		}
	}
	if name, err := sexp.GetString(netNode, 1); err == nil {
		if net, ok := netMap.GetByName(name); ok {
			return net
		}
	}
	return nil
}
