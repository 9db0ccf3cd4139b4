package engine

import (
	"github.com/sablefin/parsevm/grammar"
	"github.com/sablefin/parsevm/stack"
)

// Finish tells the ParseState there is no more input coming, and asks it to
// wrap up any frame that is still open at a position where EOF is valid. It
// reports false if the grammar was not in a state where EOF could be
// accepted there (a syntax error at end of input, in other words).
//
// An open IntFA frame must be in a start state (backed out), a final state
// (recognized as a terminal), or both (ambiguous; not handled, see below).
// An open GLA frame must then be in its start state (backed out) or have an
// outgoing EOF transition (taken). Once only RTN frames remain, every frame
// from the bottom up to (but not including) the top must have left a final
// state via the transition recorded on it, and the top frame's current
// state must itself be final, for EOF to be valid; if so, every remaining
// RTN frame is popped, firing EndRule for each, same as an ordinary parse
// ending by running out of grammar.
func (s *ParseState) Finish() bool {
	if s.stack.Empty() {
		return true
	}

	if top := s.stack.Top(); top.Kind == stack.IntFA {
		fa := s.Grammar.IntFAs[top.IntFAIndex]
		st := fa.States[top.IntFAState]
		switch {
		case st.IsFinal() && top.IntFAState == 0:
			// A lexer that accepts the empty string at its own start state,
			// sitting open at true EOF. Grammars this engine targets never
			// shape a lexer this way; refuse rather than guess.
			return false
		case st.IsFinal():
			length := int(s.Offset.Byte - top.Start.Byte)
			s.processTerminal(st.Final, top.Start, length)
		case top.IntFAState == 0:
			s.stack.Pop()
		default:
			return false
		}
	}

	if s.stack.Empty() {
		return true
	}

	if top := s.stack.Top(); top.Kind == stack.GLA {
		if top.GLAState == 0 {
			s.stack.Pop()
		} else {
			gla := s.Grammar.GLAs[top.GLAIndex]
			gst := gla.States[top.GLAState]
			if _, ok := gst.Transitions[grammar.NoName]; !ok {
				return false
			}

			// process_terminal() wants an IntFA frame on top to pop; its
			// automaton/state are never consulted for the frame being
			// popped, only the frame type.
			s.stack.Push(stack.NewIntFAFrame(0, s.Offset))
			s.processTerminal(grammar.NoName, s.Offset, 0)

			for !s.stack.Empty() && s.stack.Top().Kind != stack.RTN {
				s.stack.Pop()
			}
		}
	}

	if s.stack.Empty() {
		return true
	}

	for i := 0; i < s.stack.Len()-1; i++ {
		f := s.stack.At(i)
		if f.RTNTransition == nil {
			return false
		}
		destState := s.Grammar.RTNs[f.RTNIndex].States[f.RTNTransition.Dest]
		if !destState.IsFinal {
			return false
		}
	}

	bottom := s.stack.Top()
	if !s.Grammar.RTNs[bottom.RTNIndex].States[bottom.RTNState].IsFinal {
		return false
	}

	for !s.stack.Empty() {
		s.popRTNFrame()
	}
	return true
}
