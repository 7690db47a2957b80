// Package sexp provides tolerant S-expression parsing for KiCad files.
// The tokenizer never fails: malformed input (unbalanced parentheses,
// unterminated quotes) degrades to a best-effort partial tree, because
// upstream files are user-supplied EDA exports that may be hand-edited
// or truncated in transit.
package sexp

import (
	"strconv"
	"strings"
)

// Node is a single S-expression node: either an atom (a raw string token,
// numbers included) or a list of child nodes. The zero Node is an empty atom.
type Node struct {
	atom   string
	items  []Node
	isList bool
}

// Atom constructs an atom node.
func Atom(s string) Node {
	return Node{atom: s}
}

// List constructs a list node from its children.
func List(children ...Node) Node {
	return Node{items: children, isList: true}
}

// IsAtom reports whether the node is an atom.
func (n Node) IsAtom() bool { return !n.isList }

// IsList reports whether the node is a list.
func (n Node) IsList() bool { return n.isList }

// Atom returns the atom text, or "" for lists.
func (n Node) Atom() string {
	if n.isList {
		return ""
	}
	return n.atom
}

// Len returns the number of children of a list (0 for atoms).
func (n Node) Len() int { return len(n.items) }

// At returns the child at index i, or a zero Node when out of range.
func (n Node) At(i int) Node {
	if i < 0 || i >= len(n.items) {
		return Node{}
	}
	return n.items[i]
}

// Items returns the children of a list (nil for atoms).
func (n Node) Items() []Node { return n.items }

// Tag returns the first atom of a list (the node type in KiCad files),
// or "" when the node is an atom or starts with a sublist.
func (n Node) Tag() string {
	if !n.isList || len(n.items) == 0 {
		return ""
	}
	return n.items[0].Atom()
}

// Find returns the first child list whose tag matches key.
// A bare atom child equal to key also matches, mirroring KiCad's habit
// of using plain symbols as boolean markers (e.g. "hide", "power").
func (n Node) Find(key string) (Node, bool) {
	for _, item := range n.items {
		if item.isList {
			if item.Tag() == key {
				return item, true
			}
		} else if item.atom == key {
			return item, true
		}
	}
	return Node{}, false
}

// FindAll returns every child list whose tag matches key.
func (n Node) FindAll(key string) []Node {
	var results []Node
	for _, item := range n.items {
		if item.isList && item.Tag() == key {
			results = append(results, item)
		}
	}
	return results
}

// StringAt returns the atom at index i, or "" when missing or a list.
func (n Node) StringAt(i int) string {
	return n.At(i).Atom()
}

// FloatAt returns the atom at index i parsed as a float, or def when
// missing or unparsable.
func (n Node) FloatAt(i int, def float64) float64 {
	s := n.StringAt(i)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// IntAt returns the atom at index i parsed as an int, or def when
// missing or unparsable.
func (n Node) IntAt(i int, def int) int {
	s := n.StringAt(i)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// Value returns the first value after a tagged child, or def when the
// child is absent. Example: Value("unit", "1") on (symbol ... (unit 2))
// returns "2".
func (n Node) Value(key, def string) string {
	child, ok := n.Find(key)
	if !ok || child.Len() < 2 {
		return def
	}
	return child.StringAt(1)
}

// HasAtom reports whether the list contains a bare atom equal to s.
func (n Node) HasAtom(s string) bool {
	for _, item := range n.items {
		if !item.isList && item.atom == s {
			return true
		}
	}
	return false
}

// String renders the node back to S-expression text. Atoms that contain
// delimiters are quoted; quoted content is written back verbatim, so a
// tokenize/serialize/tokenize round trip preserves the tree.
func (n Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n Node) write(b *strings.Builder) {
	if !n.isList {
		if n.atom == "" || strings.ContainsAny(n.atom, "() \t\r\n\"") {
			b.WriteByte('"')
			b.WriteString(n.atom)
			b.WriteByte('"')
		} else {
			b.WriteString(n.atom)
		}
		return
	}
	b.WriteByte('(')
	for i, item := range n.items {
		if i > 0 {
			b.WriteByte(' ')
		}
		item.write(b)
	}
	b.WriteByte(')')
}
