// Package grammar holds the immutable, read-only data structure that
// describes a compiled grammar: its RTNs (recursive transition networks),
// GLAs (lookahead automata), and IntFAs (the byte-level lexer DFAs), plus
// the interned terminal name table that ties them together.
//
// A Grammar is built once by a loader (see the loader package) and is safe
// for concurrent use by any number of parse states afterward; nothing here
// mutates a Grammar once Build has produced it.
package grammar

import "fmt"

// Name is an interned terminal name. Names are compared with ==, which is
// equivalent to the pointer-identity comparison the original design calls
// for: the small-integer-ID reimplementation is explicitly sanctioned as an
// alternative to pointer identity, and it plays more nicely with Go's value
// semantics and map keys.
type Name int32

// NoName is the name of the EOF sentinel terminal. A buffered Terminal with
// this name denotes end-of-input; RTN transitions never match it, only GLA
// transitions do.
const NoName Name = -1

func (n Name) String() string {
	if n == NoName {
		return "$EOF"
	}
	return fmt.Sprintf("Name(%d)", int32(n))
}

// NameTable interns terminal name strings into small, comparable Name
// values. The same string always interns to the same Name.
type NameTable struct {
	byString map[string]Name
	byName   []string
}

// NewNameTable returns an empty, ready-to-use NameTable.
func NewNameTable() *NameTable {
	return &NameTable{byString: map[string]Name{}}
}

// Intern returns the Name for s, assigning it a fresh one on first sight.
func (t *NameTable) Intern(s string) Name {
	if n, ok := t.byString[s]; ok {
		return n
	}
	n := Name(len(t.byName))
	t.byName = append(t.byName, s)
	t.byString[s] = n
	return n
}

// Text returns the original string a Name was interned from. Panics if n is
// not a name produced by this table (NoName included).
func (t *NameTable) Text(n Name) string {
	if n < 0 || int(n) >= len(t.byName) {
		panic(fmt.Sprintf("not a name in this table: %v", n))
	}
	return t.byName[n]
}

// Len returns the number of distinct names interned so far.
func (t *NameTable) Len() int {
	return len(t.byName)
}
