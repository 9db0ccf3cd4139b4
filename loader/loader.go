// Package loader decodes a compiled-grammar container into a
// *grammar.Grammar. Producing that container (from a .y-style grammar
// source, through LL/LALR construction) is the "opaque compiler" the core
// engine spec places out of scope; this package only concerns itself with
// the binary record format on the way back in, the same division of
// responsibility internal/tqw draws between TQW file parsing and the
// in-memory game.State it produces.
package loader

import (
	"fmt"

	"github.com/dekarrin/rezi"

	"github.com/sablefin/parsevm/grammar"
)

// Container is the on-disk/over-the-wire shape of a compiled grammar: one
// rezi-encodable record per automaton table, plus the interned name strings
// in ID order so Load can rebuild the NameTable deterministically.
type Container struct {
	Names  []string
	IntFAs []intFARecord
	GLAs   []glaRecord
	RTNs   []rtnRecord
}

type byteRangeRecord struct {
	Low, High byte
	Dest      int
}

type intFAStateRecord struct {
	Final       int32
	Transitions []byteRangeRecord
}

type intFARecord struct {
	States []intFAStateRecord
}

type glaStateRecord struct {
	Final            bool
	IntFA            int
	Transitions      map[int32]int
	TransitionOffset int
}

type glaRecord struct {
	States []glaStateRecord
}

type rtnTransitionRecord struct {
	Kind     int
	TermName int32
	Callee   int
	Dest     int
}

type rtnStateRecord struct {
	IsFinal     bool
	Lookahead   int
	IntFA       int
	GLA         int
	Transitions []rtnTransitionRecord
}

type rtnRecord struct {
	Name   string
	States []rtnStateRecord
}

// Encode serializes a Container into the compiled-grammar binary format.
func Encode(c Container) []byte {
	return rezi.EncBinary(c)
}

// Decode reads a Container from bytes produced by Encode (or an external
// compiler emitting the same format) and builds the corresponding, validated
// *grammar.Grammar.
func Decode(data []byte) (*grammar.Grammar, error) {
	var c Container
	n, err := rezi.DecBinary(data, &c)
	if err != nil {
		return nil, fmt.Errorf("rezi decode: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("decoded %d/%d bytes; trailing garbage in container", n, len(data))
	}
	return build(c)
}

// build replays a decoded Container's records through grammar.Builder,
// re-interning names in the order Names lists them so that the Name values
// referenced by IntFARecord/GLARecord/RTNRecord line up with fresh IDs in
// the new NameTable.
func build(c Container) (g *grammar.Grammar, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed grammar container: %v", r)
		}
	}()

	b := grammar.NewBuilder()
	names := b.Names()
	remap := make([]grammar.Name, len(c.Names))
	for i, s := range c.Names {
		remap[i] = names.Intern(s)
	}
	name := func(id int32) grammar.Name {
		if id < 0 {
			return grammar.NoName
		}
		return remap[id]
	}

	for _, fa := range c.IntFAs {
		var out grammar.IntFA
		for _, st := range fa.States {
			var ranges []grammar.ByteRange
			for _, r := range st.Transitions {
				ranges = append(ranges, grammar.ByteRange{Low: r.Low, High: r.High, Dest: r.Dest})
			}
			out.States = append(out.States, grammar.IntFAState{Final: name(st.Final), Transitions: ranges})
		}
		b.AddIntFA(out)
	}

	for _, gla := range c.GLAs {
		var out grammar.GLA
		for _, st := range gla.States {
			gst := grammar.GLAState{Final: st.Final, IntFA: st.IntFA, TransitionOffset: st.TransitionOffset}
			if !st.Final {
				gst.Transitions = make(map[grammar.Name]int, len(st.Transitions))
				for k, v := range st.Transitions {
					gst.Transitions[name(k)] = v
				}
			}
			out.States = append(out.States, gst)
		}
		b.AddGLA(out)
	}

	for _, rtn := range c.RTNs {
		out := grammar.RTN{Name: rtn.Name}
		for _, st := range rtn.States {
			rst := grammar.RTNState{
				IsFinal:   st.IsFinal,
				Lookahead: grammar.LookaheadType(st.Lookahead),
				IntFA:     st.IntFA,
				GLA:       st.GLA,
			}
			for _, t := range st.Transitions {
				rst.Transitions = append(rst.Transitions, grammar.RTNTransition{
					Kind:     grammar.TransitionKind(t.Kind),
					TermName: name(t.TermName),
					Callee:   t.Callee,
					Dest:     t.Dest,
				})
			}
			out.States = append(out.States, rst)
		}
		b.AddRTN(out)
	}

	return b.Finish(), nil
}
