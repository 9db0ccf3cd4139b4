package engine

import "github.com/sablefin/parsevm/grammar"

// findIntFATransition returns the outgoing IntFA transition matching byte b,
// if any. IntFA transitions are stored as half-open byte ranges rather than
// a full 256-entry table, so this is a linear scan; states are kept small by
// the grammar compiler, so this is cheap in practice.
func findIntFATransition(st grammar.IntFAState, b byte) (grammar.ByteRange, bool) {
	for _, r := range st.Transitions {
		if b >= r.Low && b < r.High {
			return r, true
		}
	}
	return grammar.ByteRange{}, false
}

// findRTNTerminalTransition returns the outgoing RTN transition of st that
// matches terminal name n, if any. An RTN state with HasNeither lookahead
// has at most one transition and it is unconditional; states with a GLA or
// IntFA may have several terminal transitions distinguished by name.
func findRTNTerminalTransition(st grammar.RTNState, n grammar.Name) *grammar.RTNTransition {
	for i := range st.Transitions {
		t := &st.Transitions[i]
		if t.Kind == grammar.Terminal && t.TermName == n {
			return t
		}
	}
	return nil
}
