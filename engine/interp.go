package engine

import (
	"github.com/sablefin/parsevm/gzlerr"
	"github.com/sablefin/parsevm/grammar"
	"github.com/sablefin/parsevm/stack"
)

// pushRTNFrame pushes a fresh RTN frame for rtnIdx and fires StartRule.
func (s *ParseState) pushRTNFrame(rtnIdx int, start stack.Offset) {
	s.stack.Push(stack.NewRTNFrame(rtnIdx, start))
	if s.Callbacks.StartRule != nil {
		s.Callbacks.StartRule(s)
	}
}

// pushRTNFrameForTransition records t as the transition the current top RTN
// frame will resume on once its callee returns, then pushes a frame for the
// callee.
func (s *ParseState) pushRTNFrameForTransition(t *grammar.RTNTransition, start stack.Offset) {
	top := s.stack.Top()
	if top.Kind != stack.RTN {
		panic("pushRTNFrameForTransition: current top frame must be RTN")
	}
	top.RTNTransition = t
	s.pushRTNFrame(t.Callee, start)
}

// popRTNFrame fires EndRule and pops the top RTN frame. If that empties the
// stack, the parse has hit hard EOF. Otherwise the parent RTN frame (now on
// top) advances to the destination state recorded by the transition it took
// to push the frame just popped.
func (s *ParseState) popRTNFrame() Status {
	if s.Callbacks.EndRule != nil {
		s.Callbacks.EndRule(s)
	}
	s.stack.Pop()
	if s.stack.Empty() {
		return StatusHardEOF
	}
	parent := s.stack.Top()
	if parent.Kind != stack.RTN {
		panic("popRTNFrame: parent frame must be RTN")
	}
	if parent.RTNTransition != nil {
		parent.RTNState = parent.RTNTransition.Dest
	}
	return StatusOK
}

// pushLexerForTop pushes an IntFA frame for whatever lexer the current top
// frame (an RTN state with HasIntFA lookahead, or a nonfinal GLA state)
// names.
func (s *ParseState) pushLexerForTop() {
	top := s.stack.Top()
	var intfaIdx int
	switch top.Kind {
	case stack.GLA:
		gst := s.Grammar.GLAs[top.GLAIndex].States[top.GLAState]
		if gst.Final {
			panic("pushLexerForTop: GLA frame must be nonfinal")
		}
		intfaIdx = gst.IntFA
	case stack.RTN:
		rst := s.Grammar.RTNs[top.RTNIndex].States[top.RTNState]
		if rst.Lookahead != grammar.HasIntFA {
			panic("pushLexerForTop: RTN state must have an IntFA")
		}
		intfaIdx = rst.IntFA
	default:
		panic("pushLexerForTop: top frame must be RTN or GLA")
	}
	s.stack.Push(stack.NewIntFAFrame(intfaIdx, s.Offset))
}

// descendToGLA repeatedly resolves RTN states with HasNeither lookahead
// (taking their sole transition, or popping, without consuming input) until
// the top frame is a GLA frame, an RTN state with HasIntFA lookahead, or the
// stack empties. enteredGLA reports whether a GLA frame was pushed, which
// the caller needs to know to reset its GLA lookahead cursor.
func (s *ParseState) descendToGLA(startOffset stack.Offset) (status Status, enteredGLA bool, err error) {
	for {
		top := s.stack.Top()
		if top.Kind != stack.RTN {
			return StatusOK, enteredGLA, nil
		}

		if s.stack.Len() >= s.MaxStackDepth-1 {
			return StatusResourceLimitExceeded, enteredGLA,
				gzlerr.NewResourceLimitError("parse stack depth", s.MaxStackDepth)
		}

		rst := s.Grammar.RTNs[top.RTNIndex].States[top.RTNState]
		switch rst.Lookahead {
		case grammar.HasIntFA:
			return StatusOK, enteredGLA, nil
		case grammar.HasGLA:
			s.stack.Push(stack.NewGLAFrame(rst.GLA, startOffset))
			return StatusOK, true, nil
		default:
			if len(rst.Transitions) == 0 {
				if st := s.popRTNFrame(); st != StatusOK {
					return st, enteredGLA, nil
				}
			} else {
				t := &s.Grammar.RTNs[top.RTNIndex].States[top.RTNState].Transitions[0]
				s.pushRTNFrameForTransition(t, startOffset)
			}
		}
	}
}

// doRTNTerminalTransition records t as the transition taken, fires the
// Terminal callback, and advances the RTN state.
func (s *ParseState) doRTNTerminalTransition(t *grammar.RTNTransition, term Terminal) Status {
	top := s.stack.Top()
	if top.Kind != stack.RTN {
		panic("doRTNTerminalTransition: top frame must be RTN")
	}
	top.RTNTransition = t
	if s.Callbacks.Terminal != nil {
		s.Callbacks.Terminal(s, term)
	}
	top.RTNState = t.Dest
	return StatusOK
}

// doGLATransition advances the top GLA frame on term. If that lands on a
// final GLA state, the GLA frame is popped and its decision (pop the RTN
// beneath, or take one of its transitions) is applied to the RTN frame it
// reveals. rtnTermOffset is the caller's RTN lookahead cursor, advanced here
// when the GLA's decision consumes the next buffered terminal on behalf of
// the RTN frame (a terminal transition taken directly from GLA finalization,
// as opposed to a nonterminal transition that merely pushes a callee and
// leaves the terminal for that callee to consume).
func (s *ParseState) doGLATransition(term Terminal, rtnTermOffset *int) (Status, error) {
	top := s.stack.Top()
	if top.Kind != stack.GLA {
		panic("doGLATransition: top frame must be GLA")
	}
	gla := &s.Grammar.GLAs[top.GLAIndex]
	gst := gla.States[top.GLAState]
	if gst.Final {
		panic("doGLATransition: GLA frame must be nonfinal")
	}

	destIdx, ok := gst.Transitions[term.Name]
	if !ok {
		if s.Callbacks.ErrorTerminal != nil {
			s.Callbacks.ErrorTerminal(s, term)
		}
		return StatusError, gzlerr.NewSyntaxError(term.Offset, s.termText(term.Name))
	}
	top.GLAState = destIdx

	destSt := gla.States[destIdx]
	if !destSt.Final {
		return StatusOK, nil
	}

	s.stack.Pop() // the GLA frame; the RTN frame beneath is revealed below.

	if destSt.TransitionOffset == 0 {
		return s.popRTNFrame(), nil
	}

	rtnTop := s.stack.Top()
	if rtnTop.Kind != stack.RTN {
		panic("doGLATransition: frame beneath a GLA must be RTN")
	}
	tp := &s.Grammar.RTNs[rtnTop.RTNIndex].States[rtnTop.RTNState].Transitions[destSt.TransitionOffset-1]
	nextTerm := s.tokenBuffer[*rtnTermOffset]

	if tp.Kind == grammar.Terminal {
		if nextTerm.Name != tp.TermName {
			panic("doGLATransition: buffered terminal does not match the RTN transition the GLA decided on")
		}
		*rtnTermOffset = *rtnTermOffset + 1
		return s.doRTNTerminalTransition(tp, nextTerm), nil
	}

	s.pushRTNFrameForTransition(tp, nextTerm.Offset)
	return StatusOK, nil
}

// processTerminal buffers one newly-recognized terminal and then feeds as
// many buffered terminals as possible to whatever frame(s) are waiting for
// them, descending through HasNeither RTN states and into/out of GLA frames
// as it goes. Once the terminal-feeding loop below has started, it always
// compacts the terminal buffer and updates OpenTerminalOffset before
// returning, even when it is returning an error: a driver needs
// OpenTerminalOffset to be current to know how much of its own input buffer
// it may discard, independent of parse success. Hitting MaxLookahead before
// the loop starts is the one exception: there is nothing yet to compact.
func (s *ParseState) processTerminal(name grammar.Name, start stack.Offset, length int) (Status, error) {
	top := s.stack.Top()
	if top.Kind != stack.IntFA {
		panic("processTerminal: top frame must be IntFA")
	}
	s.stack.Pop()

	s.tokenBuffer = append(s.tokenBuffer, Terminal{Name: name, Offset: start, Len: length})
	if len(s.tokenBuffer) >= s.MaxLookahead {
		return StatusResourceLimitExceeded, gzlerr.NewResourceLimitError("lookahead buffer", s.MaxLookahead)
	}

	rtnTermOffset := 0
	glaTermOffset := len(s.tokenBuffer) - 1

	status := StatusOK
	var err error
	frameKind := s.stack.Top().Kind

	for {
		skip := false

		if frameKind == stack.RTN {
			rtnTerm := s.tokenBuffer[rtnTermOffset]
			rtnTermOffset++
			if rtnTerm.IsEOF() {
				skip = true
			} else {
				rtop := s.stack.Top()
				rst := s.Grammar.RTNs[rtop.RTNIndex].States[rtop.RTNState]
				tr := findRTNTerminalTransition(rst, rtnTerm.Name)
				if tr == nil {
					if s.Callbacks.ErrorTerminal != nil {
						s.Callbacks.ErrorTerminal(s, rtnTerm)
					}
					status, err = StatusError, gzlerr.NewSyntaxError(rtnTerm.Offset, s.termText(rtnTerm.Name))
				} else {
					status = s.doRTNTerminalTransition(tr, rtnTerm)
				}
			}
		} else {
			glaTerm := s.tokenBuffer[glaTermOffset]
			glaTermOffset++
			status, err = s.doGLATransition(glaTerm, &rtnTermOffset)
		}

		if !skip {
			if status == StatusOK {
				var nextOffset stack.Offset
				if rtnTermOffset < len(s.tokenBuffer) {
					nextOffset = s.tokenBuffer[rtnTermOffset].Offset
				} else {
					nextOffset = s.Offset
				}
				var enteredGLA bool
				status, enteredGLA, err = s.descendToGLA(nextOffset)
				if enteredGLA {
					glaTermOffset = rtnTermOffset
				}
			}
			if status == StatusOK {
				frameKind = s.stack.Top().Kind
			}
		}

		more := status == StatusOK &&
			((frameKind == stack.RTN && rtnTermOffset < len(s.tokenBuffer)) ||
				(frameKind == stack.GLA && glaTermOffset < len(s.tokenBuffer)))
		if !more {
			break
		}
	}

	if rtnTermOffset < len(s.tokenBuffer) && s.tokenBuffer[rtnTermOffset].IsEOF() {
		rtnTermOffset++
	}
	s.compactTokenBuffer(rtnTermOffset)

	return status, err
}

// compactTokenBuffer discards the first n buffered terminals (already fully
// consumed by every frame that needed them) and updates OpenTerminalOffset
// to the start of whatever remains open: the first still-buffered terminal,
// or the current stream offset if none remain.
func (s *ParseState) compactTokenBuffer(n int) {
	remaining := len(s.tokenBuffer) - n
	if remaining > 0 {
		copy(s.tokenBuffer, s.tokenBuffer[n:])
		s.tokenBuffer = s.tokenBuffer[:remaining]
		s.OpenTerminalOffset = s.tokenBuffer[0].Offset
	} else {
		s.tokenBuffer = s.tokenBuffer[:0]
		s.OpenTerminalOffset = s.Offset
	}
}

// doIntFATransition drives the top IntFA frame on one input byte: on a
// direct transition, consumes it; on no transition out of a final state,
// recognizes the terminal there, pushes a fresh lexer frame for whatever
// sits beneath, and retries ch against it (longest-match backoff); on no
// transition out of a nonfinal state, reports a lex error. After consuming
// ch, a final state with no further outgoing transitions is recognized
// eagerly rather than waiting for a byte that cannot extend the match.
func (s *ParseState) doIntFATransition(ch byte) (Status, error) {
	top := s.stack.Top()
	if top.Kind != stack.IntFA {
		panic("doIntFATransition: top frame must be IntFA")
	}
	frameStart := top.Start
	fa := &s.Grammar.IntFAs[top.IntFAIndex]
	st := fa.States[top.IntFAState]

	tr, ok := findIntFATransition(st, ch)
	if !ok {
		if !st.IsFinal() {
			if s.Callbacks.ErrorChar != nil {
				s.Callbacks.ErrorChar(s, ch)
			}
			return StatusError, gzlerr.NewLexError(s.Offset, ch)
		}

		length := int(s.Offset.Byte - frameStart.Byte)
		if status, err := s.processTerminal(st.Final, frameStart, length); status != StatusOK {
			return status, err
		}
		s.pushLexerForTop()

		top = s.stack.Top()
		frameStart = top.Start
		fa = &s.Grammar.IntFAs[top.IntFAIndex]
		st = fa.States[top.IntFAState]

		tr, ok = findIntFATransition(st, ch)
		if !ok {
			if s.Callbacks.ErrorChar != nil {
				s.Callbacks.ErrorChar(s, ch)
			}
			return StatusError, gzlerr.NewLexError(s.Offset, ch)
		}
	}

	next, newlineByte := s.Offset.AdvanceByte(ch, s.lastNewlineByte)
	s.Offset = next
	s.lastNewlineByte = newlineByte

	top.IntFAState = tr.Dest
	newSt := fa.States[top.IntFAState]

	if newSt.IsFinal() && len(newSt.Transitions) == 0 {
		length := int(s.Offset.Byte - frameStart.Byte)
		status, err := s.processTerminal(newSt.Final, frameStart, length)
		if status != StatusOK {
			return status, err
		}
		if !s.stack.Empty() {
			s.pushLexerForTop()
		}
		return StatusOK, nil
	}
	return StatusOK, nil
}

// Feed drives the parse forward with the next chunk of input bytes. On the
// very first call it pushes the start-rule RTN frame and descends to the
// first lexer frame before consuming any bytes. A returned status other
// than StatusOK means Feed consumed a prefix of buf (possibly empty) and
// then stopped; callers that only have StatusOK should feed more bytes.
func (s *ParseState) Feed(buf []byte) (Status, error) {
	if !s.started {
		s.started = true
		s.pushRTNFrame(s.Grammar.StartRTN(), s.Offset)
		status, _, err := s.descendToGLA(s.Offset)
		if status != StatusOK {
			return status, err
		}
		if !s.stack.Empty() {
			s.pushLexerForTop()
		}
	}

	if s.stack.Empty() {
		return StatusHardEOF, nil
	}

	for i := 0; i < len(buf); {
		if n, ok, status, err := s.tryLiteralFastPath(buf, i); ok {
			if status != StatusOK {
				return status, err
			}
			i += n
			if s.stack.Empty() {
				return StatusHardEOF, nil
			}
			continue
		}
		status, err := s.doIntFATransition(buf[i])
		if status != StatusOK {
			return status, err
		}
		i++
		if s.stack.Empty() {
			return StatusHardEOF, nil
		}
	}

	return StatusOK, nil
}

// tryLiteralFastPath attempts to consume a whole keyword/punctuation-style
// terminal in one step via Aho-Corasick instead of walking the IntFA one
// byte at a time. It is purely an accelerant: whenever it cannot confirm a
// match (no literal index for this IntFA, no match at this exact position,
// or the match runs past the end of buf because more input is still
// buffered elsewhere), it reports ok=false and the caller falls back to the
// ordinary per-byte driver, which is always correct on its own.
func (s *ParseState) tryLiteralFastPath(buf []byte, i int) (consumed int, ok bool, status Status, err error) {
	top := s.stack.Top()
	if top.Kind != stack.IntFA || top.IntFAState != 0 {
		return 0, false, StatusOK, nil
	}

	idx := s.literalIndexFor(top.IntFAIndex)
	if idx == nil {
		return 0, false, StatusOK, nil
	}

	m := idx.automaton.Find(buf[i:], 0)
	if m == nil || m.Start != 0 {
		return 0, false, StatusOK, nil
	}

	target, found := idx.targets[string(buf[i+m.Start:i+m.End])]
	if !found {
		return 0, false, StatusOK, nil
	}

	frameStart := top.Start
	for j := i; j < i+m.End; j++ {
		next, newlineByte := s.Offset.AdvanceByte(buf[j], s.lastNewlineByte)
		s.Offset = next
		s.lastNewlineByte = newlineByte
	}
	top.IntFAState = target.destState

	length := int(s.Offset.Byte - frameStart.Byte)
	// The state this literal lands on is always final with no outgoing
	// transitions (buildLiteralIndex only registers such states), so it is
	// always recognized eagerly, exactly as doIntFATransition's tail would.
	status, err = s.processTerminal(target.name, frameStart, length)
	if status == StatusOK && !s.stack.Empty() {
		s.pushLexerForTop()
	}
	return m.End, true, status, err
}

// literalIndexFor returns the cached literalIndex for IntFA idx, building
// and caching it on first use.
func (s *ParseState) literalIndexFor(idx int) *literalIndex {
	if s.literalIdx == nil {
		s.literalIdx = map[int]*literalIndex{}
	}
	li, cached := s.literalIdx[idx]
	if cached {
		return li
	}
	li = buildLiteralIndex(&s.Grammar.IntFAs[idx])
	s.literalIdx[idx] = li
	return li
}
