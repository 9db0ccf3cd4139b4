package grammar

import "fmt"

// Builder assembles a Grammar incrementally. It exists so loaders (which
// decode a compiled-grammar container produced by an external, out-of-scope
// compiler) have a convenient, mistake-resistant way to populate the three
// tables before handing a finished, immutable Grammar to the engine.
//
// A Builder is not safe for concurrent use; build on one goroutine, then
// share only the result of Finish.
type Builder struct {
	names  *NameTable
	rtns   []RTN
	glas   []GLA
	intfas []IntFA
}

// NewBuilder returns an empty Builder with a fresh name table.
func NewBuilder() *Builder {
	return &Builder{names: NewNameTable()}
}

// Names returns the name table backing this builder, for interning terminal
// names while constructing IntFA/RTN/GLA tables.
func (b *Builder) Names() *NameTable {
	return b.names
}

// AddIntFA appends an IntFA and returns its index.
func (b *Builder) AddIntFA(fa IntFA) int {
	b.intfas = append(b.intfas, fa)
	return len(b.intfas) - 1
}

// AddGLA appends a GLA and returns its index.
func (b *Builder) AddGLA(g GLA) int {
	b.glas = append(b.glas, g)
	return len(b.glas) - 1
}

// AddRTN appends an RTN and returns its index. The first RTN added becomes
// the start rule (index 0).
func (b *Builder) AddRTN(r RTN) int {
	b.rtns = append(b.rtns, r)
	return len(b.rtns) - 1
}

// Finish validates cross-references among the three tables and returns the
// completed, immutable Grammar. It panics on a structurally invalid
// grammar (an out-of-range RTN/GLA/IntFA/state index, or an RTN transition
// referencing a terminal name that was never interned through this
// builder) since such a grammar could never have been produced by a
// correct loader and would otherwise fail unpredictably deep inside the
// interpreter.
func (b *Builder) Finish() *Grammar {
	if len(b.rtns) == 0 {
		panic("grammar has no RTNs; need at least a start rule")
	}

	for i, r := range b.rtns {
		for j, st := range r.States {
			switch st.Lookahead {
			case HasIntFA:
				if st.IntFA < 0 || st.IntFA >= len(b.intfas) {
					panic(fmt.Sprintf("RTN %d state %d: IntFA index %d out of range", i, j, st.IntFA))
				}
			case HasGLA:
				if st.GLA < 0 || st.GLA >= len(b.glas) {
					panic(fmt.Sprintf("RTN %d state %d: GLA index %d out of range", i, j, st.GLA))
				}
			}
			for k, t := range st.Transitions {
				if t.Dest < 0 || t.Dest >= len(r.States) {
					panic(fmt.Sprintf("RTN %d state %d transition %d: dest %d out of range", i, j, k, t.Dest))
				}
				if t.Kind == Nonterminal && (t.Callee < 0 || t.Callee >= len(b.rtns)) {
					panic(fmt.Sprintf("RTN %d state %d transition %d: callee RTN %d out of range", i, j, k, t.Callee))
				}
			}
		}
	}

	for i, g := range b.glas {
		for j, st := range g.States {
			if !st.Final && (st.IntFA < 0 || st.IntFA >= len(b.intfas)) {
				panic(fmt.Sprintf("GLA %d state %d: IntFA index %d out of range", i, j, st.IntFA))
			}
		}
	}

	for i, fa := range b.intfas {
		for j, st := range fa.States {
			for k, tr := range st.Transitions {
				if tr.Dest < 0 || tr.Dest >= len(fa.States) {
					panic(fmt.Sprintf("IntFA %d state %d transition %d: dest %d out of range", i, j, k, tr.Dest))
				}
			}
		}
	}

	return &Grammar{
		RTNs:   b.rtns,
		GLAs:   b.glas,
		IntFAs: b.intfas,
		Names:  b.names,
	}
}
