package pcb

import (
	"math"
	"strings"
)

// Position represents a 2D position in mm
type Position struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between two positions
func (p Position) Distance(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Angle represents rotation in degrees
type Angle float64

// Radians converts the angle to radians
func (a Angle) Radians() float64 {
	return float64(a) * math.Pi / 180.0
}

// PositionAngle combines position with rotation
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions
type Size struct {
	Width  float64 // Width in mm
	Height float64 // Height in mm
}

// Net represents an electrical net
type Net struct {
	Number int    // Net number (ordinal)
	Name   string // Net name
}

// LayerSet represents a set of layers
type LayerSet []string

// Contains reports whether the set covers the named layer.
// Wildcards such as "*.Cu" and the "F&B.Cu" shorthand are expanded.
func (ls LayerSet) Contains(layer string) bool {
	for _, l := range ls {
		switch {
		case l == layer:
			return true
		case strings.HasPrefix(l, "*."):
			if strings.HasSuffix(layer, l[1:]) {
				return true
			}
		case l == "F&B.Cu":
			if layer == "F.Cu" || layer == "B.Cu" {
				return true
			}
		}
	}
	return false
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	byNumber map[int]*Net
	byName   map[string]*Net
}

// NewNetMap creates a NetMap from a slice of nets
func NewNetMap(nets []Net) *NetMap {
	nm := &NetMap{
		byNumber: make(map[int]*Net),
		byName:   make(map[string]*Net),
	}

	for i := range nets {
		net := &nets[i]
		nm.byNumber[net.Number] = net
		// Only index non-empty names
		if net.Name != "" {
			nm.byName[net.Name] = net
		}
	}

	return nm
}

// GetByName retrieves a net by its name (e.g., "GND", "+5V")
func (nm *NetMap) GetByName(name string) (*Net, bool) {
	net, ok := nm.byName[name]
	return net, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*Net, bool) {
	net, ok := nm.byNumber[num]
	return net, ok
}
