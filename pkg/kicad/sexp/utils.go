package sexp

import (
	"fmt"
	"strconv"
)

// S-expression navigation helpers

// FindNode searches for a child list whose first atom is key.
// Example: FindNode(pad, "at") finds (at 100 50) inside a pad.
func FindNode(n *Node, key string) (*Node, bool) {
	if n == nil || n.IsLeaf() {
		return nil, false
	}

	for _, item := range n.Items {
		if !item.IsLeaf() && nodeName(item) == key {
			return item, true
		}
	}

	return nil, false
}

// FindAllNodes finds all child lists whose first atom is key.
func FindAllNodes(n *Node, key string) []*Node {
	var results []*Node

	if n == nil || n.IsLeaf() {
		return results
	}

	for _, item := range n.Items {
		if !item.IsLeaf() && nodeName(item) == key {
			results = append(results, item)
		}
	}

	return results
}

// GetListItems returns all items in a list excluding the leading key.
// Example: GetListItems((layers "F.Cu" "B.Cu")) returns ["F.Cu", "B.Cu"]
func GetListItems(n *Node) []*Node {
	if n == nil || n.IsLeaf() || len(n.Items) <= 1 {
		return []*Node{}
	}
	return n.Items[1:]
}

// GetString extracts the atom at the given index in a list.
// Index 0 is the key, 1 is first value, etc.
func GetString(n *Node, index int) (string, error) {
	if n == nil || n.IsLeaf() {
		return "", fmt.Errorf("expected list, got leaf")
	}

	if index < 0 || index >= len(n.Items) {
		return "", fmt.Errorf("index %d out of bounds (length %d)", index, len(n.Items))
	}

	item := n.Items[index]
	if !item.IsLeaf() {
		return "", fmt.Errorf("expected atom at index %d, got list", index)
	}

	return item.Atom, nil
}

// GetFloat extracts a float64 value at the given index
func GetFloat(n *Node, index int) (float64, error) {
	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}

	return val, nil
}

// GetInt extracts an int value at the given index
func GetInt(n *Node, index int) (int, error) {
	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", str, err)
	}

	return val, nil
}

// HasSymbol checks if a list contains a specific unquoted atom
func HasSymbol(n *Node, symbol string) bool {
	if n == nil || n.IsLeaf() {
		return false
	}

	for _, item := range n.Items {
		if item.IsLeaf() && !item.Quoted && item.Atom == symbol {
			return true
		}
	}

	return false
}

// GetNodeName returns the first atom of a list (the node type/name)
func GetNodeName(n *Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("nil node")
	}
	if n.IsLeaf() {
		return n.Atom, nil
	}
	if len(n.Items) == 0 || !n.Items[0].IsLeaf() {
		return "", fmt.Errorf("expected symbol at head of list")
	}
	return n.Items[0].Atom, nil
}

func nodeName(n *Node) string {
	name, _ := GetNodeName(n)
	return name
}
