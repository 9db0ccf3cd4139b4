package engine

import (
	"github.com/google/uuid"

	"github.com/sablefin/parsevm/grammar"
	"github.com/sablefin/parsevm/stack"
)

const (
	// DefaultMaxStackDepth is the default bound on simultaneous RTN/GLA/IntFA
	// frames, matching the C implementation's default.
	DefaultMaxStackDepth = 500

	// DefaultMaxLookahead is the default bound on buffered-but-not-yet-
	// consumed terminals.
	DefaultMaxLookahead = 500
)

// ParseState is one in-progress parse against a Grammar: the parse stack,
// the buffered-terminal lookahead window, and the current stream position.
// It is the engine's central, mutable object; everything in this package is
// a method on, or helper for, a ParseState.
//
// A ParseState is not safe for concurrent use. Duplicate gives two
// independent ParseStates that may then run on separate goroutines.
type ParseState struct {
	Grammar   *grammar.Grammar
	Callbacks Callbacks

	// Handle identifies this ParseState across Duplicate calls, for
	// diagnostics and for keying it in a store of in-flight parses (see the
	// httpsrv package).
	Handle uuid.UUID

	MaxStackDepth int
	MaxLookahead  int

	// UserData is opaque to the engine; callbacks use it to thread
	// application state through without a closure over the ParseState.
	UserData interface{}

	stack              stack.Stack
	tokenBuffer        []Terminal
	Offset             stack.Offset
	OpenTerminalOffset stack.Offset
	lastNewlineByte    byte
	started            bool
	literalIdx         map[int]*literalIndex
}

// NewParseState returns a fresh ParseState ready to Feed, starting at the
// beginning of a new stream. MaxStackDepth and MaxLookahead fall back to
// DefaultMaxStackDepth/DefaultMaxLookahead when zero.
func NewParseState(g *grammar.Grammar, cb Callbacks, maxStackDepth, maxLookahead int) *ParseState {
	if maxStackDepth <= 0 {
		maxStackDepth = DefaultMaxStackDepth
	}
	if maxLookahead <= 0 {
		maxLookahead = DefaultMaxLookahead
	}
	start := stack.Start()
	return &ParseState{
		Grammar:            g,
		Callbacks:          cb,
		Handle:             uuid.New(),
		MaxStackDepth:      maxStackDepth,
		MaxLookahead:       maxLookahead,
		Offset:             start,
		OpenTerminalOffset: start,
	}
}

// Duplicate returns a deep, independent copy of s: a new stack, a new token
// buffer, and a fresh Handle, but the same Grammar (shared, read-only) and
// the same Callbacks and UserData. Used to fork a parse at a speculation
// point and continue both branches independently.
func (s *ParseState) Duplicate() *ParseState {
	cp := *s
	cp.Handle = uuid.New()
	cp.stack = *s.stack.Clone()
	cp.tokenBuffer = make([]Terminal, len(s.tokenBuffer))
	copy(cp.tokenBuffer, s.tokenBuffer)
	// literalIdx is a lazily-populated cache keyed by IntFA index, not part
	// of the parse's logical state; sharing the map header across the
	// shallow copy above would let two independently-running copies race on
	// the same map. Each copy rebuilds its own on first use instead.
	cp.literalIdx = nil
	return &cp
}

// StackDepth returns the number of frames currently on the parse stack.
func (s *ParseState) StackDepth() int {
	return s.stack.Len()
}

// Done reports whether this ParseState has hit hard EOF (an empty parse
// stack) and can no longer accept input.
func (s *ParseState) Done() bool {
	return s.stack.Empty()
}

func (s *ParseState) termText(name grammar.Name) string {
	if name == grammar.NoName {
		return "$EOF"
	}
	return s.Grammar.Names.Text(name)
}

// CurrentRuleName returns the name of the RTN owning the frame at the top
// of the stack, and true, when that frame is an RTN frame (always the case
// while a StartRule, EndRule, or Terminal callback is running). It returns
// ("", false) if the stack is empty or the top frame is a GLA/IntFA frame.
func (s *ParseState) CurrentRuleName() (string, bool) {
	if s.stack.Empty() {
		return "", false
	}
	top := s.stack.Top()
	if top.Kind != stack.RTN {
		return "", false
	}
	return s.Grammar.RTNs[top.RTNIndex].Name, true
}

// CurrentRuleSpan returns the byte range [start, end) of the text consumed
// so far by the rule at the top of the stack: the offset at which its frame
// was pushed, through the engine's current read position. Valid under the
// same conditions as CurrentRuleName.
func (s *ParseState) CurrentRuleSpan() (start, end stack.Offset, ok bool) {
	if s.stack.Empty() {
		return stack.Offset{}, stack.Offset{}, false
	}
	top := s.stack.Top()
	if top.Kind != stack.RTN {
		return stack.Offset{}, stack.Offset{}, false
	}
	return top.Start, s.Offset, true
}
