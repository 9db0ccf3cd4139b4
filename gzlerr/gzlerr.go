// Package gzlerr defines the typed errors the engine and its surrounding
// packages return. Each carries the stack.Offset at which it was detected so
// a caller (a REPL, an HTTP handler, a log line) can report position
// alongside message without re-deriving it from a ParseState.
package gzlerr

import (
	"fmt"

	"github.com/sablefin/parsevm/stack"
)

// LexError reports a byte that no IntFA transition out of the current lexer
// state could consume.
type LexError struct {
	Offset stack.Offset
	Byte   byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: unexpected byte 0x%02x", e.Offset, e.Byte)
}

// NewLexError returns a LexError at the given offset for the given byte.
func NewLexError(offset stack.Offset, b byte) error {
	return &LexError{Offset: offset, Byte: b}
}

// SyntaxError reports a terminal that no RTN or GLA transition out of the
// current frame could accept.
type SyntaxError struct {
	Offset   stack.Offset
	TermName string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: unexpected terminal %s", e.Offset, e.TermName)
}

// NewSyntaxError returns a SyntaxError for the given terminal name at the
// given offset.
func NewSyntaxError(offset stack.Offset, termName string) error {
	return &SyntaxError{Offset: offset, TermName: termName}
}

// ResourceLimitError reports that a configured bound (stack depth or
// lookahead buffer size) was exceeded.
type ResourceLimitError struct {
	Resource string
	Limit    int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%s limit of %d exceeded", e.Resource, e.Limit)
}

// NewResourceLimitError returns a ResourceLimitError naming the resource and
// its configured limit.
func NewResourceLimitError(resource string, limit int) error {
	return &ResourceLimitError{Resource: resource, Limit: limit}
}

// PrematureEOFError reports that the input stream closed before the grammar
// reached a state where EOF is valid. Returned only by the stream driver,
// never by the engine itself (which has no notion of "no more bytes are
// coming").
type PrematureEOFError struct {
	Offset stack.Offset
}

func (e *PrematureEOFError) Error() string {
	return fmt.Sprintf("%s: premature EOF", e.Offset)
}

// NewPrematureEOFError returns a PrematureEOFError at the given offset.
func NewPrematureEOFError(offset stack.Offset) error {
	return &PrematureEOFError{Offset: offset}
}

// IOError wraps an underlying read error encountered by the stream driver.
type IOError struct {
	Offset stack.Offset
	wrap   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: I/O error: %v", e.Offset, e.wrap)
}

// Unwrap gives the underlying error returned by the byte source.
func (e *IOError) Unwrap() error {
	return e.wrap
}

// WrapIOError returns an IOError at the given offset wrapping err.
func WrapIOError(offset stack.Offset, err error) error {
	return &IOError{Offset: offset, wrap: err}
}
