// Package sexp reads the S-expression syntax used by KiCad files.
//
// Atoms keep their text with quotes removed; Node.Quoted records whether the
// atom was written as a string literal.
package sexp

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer defines the lexical structure of KiCad S-expressions.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	// String literals with escape sequences
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	// Anything else up to a delimiter: keywords, numbers, layer names
	{Name: "Symbol", Pattern: `[^\s()"]+`},
})

// grammar types

type document struct {
	Exprs []*expr `@@*`
}

type expr struct {
	String *string `  @String`
	Symbol *string `| @Symbol`
	List   *list   `| @@`
}

type list struct {
	Open  string  `@"("`
	Exprs []*expr `@@* ")"`
}

var (
	buildOnce sync.Once
	built     *participle.Parser[document]
	buildErr  error
)

func parser() (*participle.Parser[document], error) {
	buildOnce.Do(func() {
		built, buildErr = participle.Build[document](
			participle.Lexer(Lexer),
			participle.Elide("Whitespace"),
		)
		if buildErr != nil {
			buildErr = fmt.Errorf("failed to build parser: %w", buildErr)
		}
	})
	return built, buildErr
}

// Parse parses all top-level expressions from r.
func Parse(r io.Reader) ([]*Node, error) {
	p, err := parser()
	if err != nil {
		return nil, err
	}

	doc, err := p.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	nodes := make([]*Node, 0, len(doc.Exprs))
	for _, e := range doc.Exprs {
		nodes = append(nodes, e.node())
	}
	return nodes, nil
}

// ParseString parses all top-level expressions from a string.
func ParseString(s string) ([]*Node, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses all top-level expressions from a file.
func ParseFile(filename string) ([]*Node, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

func (e *expr) node() *Node {
	switch {
	case e.String != nil:
		return &Node{Atom: unquote(*e.String), Quoted: true}
	case e.Symbol != nil:
		return &Node{Atom: *e.Symbol}
	default:
		n := &Node{list: true, Items: make([]*Node, 0, len(e.List.Exprs))}
		for _, child := range e.List.Exprs {
			n.Items = append(n.Items, child.node())
		}
		return n
	}
}

// unquote strips the surrounding quotes and resolves the escapes KiCad writes.
func unquote(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 == len(s) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			// Unknown escape - just include it
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
