package engine

import (
	"github.com/sablefin/parsevm/grammar"
	"github.com/sablefin/parsevm/stack"
)

// Terminal is one lexed token, buffered between the IntFA driver that
// recognized it and the RTN/GLA frames that have not yet consumed it.
type Terminal struct {
	Name   grammar.Name
	Offset stack.Offset
	Len    int
}

// IsEOF reports whether this Terminal is the EOF sentinel fed to GLA frames
// at end of input (RTN frames never see it: process_terminal skips it on
// the RTN cursor and advances past it without a transition).
func (t Terminal) IsEOF() bool {
	return t.Name == grammar.NoName
}
