// Package stack implements the parse stack and its frame variants described
// in the engine's data model: an ordered sequence of tagged frames, each
// identifying which automaton (RTN, GLA, or IntFA) is active and holding
// that automaton's current state.
package stack

import "fmt"

// Offset tracks a position in the input stream as a byte index (from stream
// start) plus a 1-origin line and column. The lexer driver updates an
// Offset on every consumed byte.
type Offset struct {
	Byte   int64
	Line   int
	Column int
}

// Start returns the Offset of the very beginning of a stream: byte 0, line
// 1, column 1.
func Start() Offset {
	return Offset{Byte: 0, Line: 1, Column: 1}
}

func (o Offset) String() string {
	return fmt.Sprintf("%d:%d (byte %d)", o.Line, o.Column, o.Byte)
}

// AdvanceByte returns the Offset reached by consuming one more byte b, given
// the newline byte (0x0A, 0x0D, or 0 for "the previous byte was not a
// newline") that the previous call to AdvanceByte consumed. Both CR and LF
// count as newline bytes. Only a *differing* adjacent pair — CR then LF, or
// LF then CR, the two ways a single line ending is spelled across
// platforms — collapses into one line advance; two identical newline bytes
// in a row (a blank line) each advance the line, since that is two line
// endings, not one split across two bytes.
//
// This is a deliberate narrowing of the original's plain boolean
// last_char_was_newline, which collapses *any* adjacent newline-byte pair,
// identical or not, and so undercounts blank lines. Tracking which byte the
// run started with instead of just "was it a newline" is what spec §4.3's
// wording ("consecutive CR/LF or LF/CR collapses") actually calls for.
func (o Offset) AdvanceByte(b byte, prevNewlineByte byte) (next Offset, newlineByte byte) {
	next = o
	next.Byte++

	isNewline := b == 0x0A || b == 0x0D
	if !isNewline {
		next.Column++
		return next, 0
	}

	if prevNewlineByte == 0 || prevNewlineByte == b {
		next.Line++
		next.Column = 1
	}
	// else: b completes a CRLF/LFCR pair started by prevNewlineByte; the
	// line was already advanced when that first byte was consumed.

	return next, b
}
