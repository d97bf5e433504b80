package sexp

import (
	"strconv"
	"strings"
)

// Node is an S-expression: either an atom or a list of nodes.
type Node struct {
	Atom   string  // Atom text, quotes removed (atoms only)
	Quoted bool    // Atom was a string literal
	Items  []*Node // Children (lists only)

	list bool
}

// NewSymbol returns an unquoted atom.
func NewSymbol(s string) *Node {
	return &Node{Atom: s}
}

// NewList returns a list node holding items.
func NewList(items ...*Node) *Node {
	return &Node{Items: items, list: true}
}

// IsLeaf returns true if this is an atom (not a list)
func (n *Node) IsLeaf() bool {
	return !n.list
}

// Len returns the number of elements in a list (0 for atoms)
func (n *Node) Len() int {
	return len(n.Items)
}

// Get returns the element at the given index, or nil.
func (n *Node) Get(index int) *Node {
	if index < 0 || index >= len(n.Items) {
		return nil
	}
	return n.Items[index]
}

// String renders the node back to S-expression text.
func (n *Node) String() string {
	if !n.list {
		if n.Quoted {
			return strconv.Quote(n.Atom)
		}
		return n.Atom
	}

	var b strings.Builder
	b.WriteByte('(')
	for i, item := range n.Items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(item.String())
	}
	b.WriteByte(')')
	return b.String()
}
