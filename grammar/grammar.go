package grammar

// LookaheadType tells a caller sitting atop an RTN state what it must push
// next in order to consume input: a lexer directly, a GLA that will itself
// drive a lexer, or neither (the state has at most one outgoing transition
// and it can be taken, or popped, without consulting any automaton).
type LookaheadType int

const (
	HasNeither LookaheadType = iota
	HasIntFA
	HasGLA
)

func (lt LookaheadType) String() string {
	switch lt {
	case HasIntFA:
		return "HAS_INTFA"
	case HasGLA:
		return "HAS_GLA"
	default:
		return "HAS_NEITHER"
	}
}

// TransitionKind distinguishes an RTN transition that consumes a terminal
// from one that pushes a callee RTN.
type TransitionKind int

const (
	Terminal TransitionKind = iota
	Nonterminal
)

// RTNTransition is one outgoing edge of an RTNState. For a Terminal edge,
// TermName identifies the terminal that must be matched. For a Nonterminal
// edge, Callee indexes the RTN to push. Dest is always the destination
// state within the *same* RTN that should be resumed once the edge's
// terminal/nonterminal has been fully consumed.
type RTNTransition struct {
	Kind     TransitionKind
	TermName Name // valid when Kind == Terminal
	Callee   int  // index into Grammar.RTNs, valid when Kind == Nonterminal
	Dest     int  // destination state index within the owning RTN
}

// RTNState is one state of one RTN.
type RTNState struct {
	IsFinal     bool
	Lookahead   LookaheadType
	IntFA       int // index into Grammar.IntFAs, valid when Lookahead == HasIntFA
	GLA         int // index into Grammar.GLAs, valid when Lookahead == HasGLA
	Transitions []RTNTransition
}

// RTN is one recursive transition network: the automaton for one
// nonterminal of the grammar.
type RTN struct {
	Name   string
	States []RTNState
}

// GLAState is one state of a GLA. A nonfinal state drives IntFA to lex the
// next terminal and dispatches on it via Transitions; a final state instead
// carries the RTN transition offset that the lookahead decided on.
type GLAState struct {
	Final bool

	// set when !Final
	IntFA       int // index into Grammar.IntFAs
	Transitions map[Name]int // terminal name -> destination GLA state index

	// set when Final. 0 means "pop the current RTN"; otherwise it is
	// 1-origin: TransitionOffset-1 indexes the RTN state's Transitions.
	TransitionOffset int
}

// GLA is one grammar lookahead automaton: a DFA over terminal names that
// disambiguates the outgoing transitions of one RTN state.
type GLA struct {
	States []GLAState
}

// ByteRange is a half-open byte range [Low, High) labeling one IntFA
// transition.
type ByteRange struct {
	Low, High byte
	Dest      int
}

// IntFAState is one state of an IntFA (the byte-level lexer DFA). Final
// holds the terminal name recognized at this state, or NoName if the state
// is not an accepting state.
type IntFAState struct {
	Final       Name
	Transitions []ByteRange
}

// IsFinal reports whether this state accepts (has a recognized terminal).
func (s IntFAState) IsFinal() bool {
	return s.Final != NoName
}

// IntFA is one byte-level DFA: the lexer for some set of terminals reachable
// from one RTN/GLA state.
type IntFA struct {
	States []IntFAState
}

// Grammar is the complete, immutable description of a compiled grammar: an
// ordered table of RTNs (the first is the start rule), an ordered table of
// GLAs, and an ordered table of IntFAs, plus the Names table that interns
// every terminal name referenced from any of them.
//
// A Grammar is built once (see Builder, and the loader package for decoding
// one from a compiled-grammar container) and is never mutated afterward; it
// may be shared across any number of concurrent parse states.
type Grammar struct {
	RTNs   []RTN
	GLAs   []GLA
	IntFAs []IntFA
	Names  *NameTable
}

// StartRTN returns the index of the start rule: by convention, always 0.
func (g *Grammar) StartRTN() int {
	return 0
}

// Transition returns the RTNTransition at 1-origin offset n (as stored on a
// final GLAState.TransitionOffset) for the given RTN state. An offset of 0
// is invalid for this call; GLA finalization handles that case itself
// (it means "pop the RTN", not "take a transition").
func (g *Grammar) Transition(rtnIdx, stateIdx, offset int) RTNTransition {
	return g.RTNs[rtnIdx].States[stateIdx].Transitions[offset-1]
}
