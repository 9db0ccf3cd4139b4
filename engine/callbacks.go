package engine

// Callbacks are the hooks the interpreter fires while it runs. Every field
// is independently optional; a nil field is simply not called. They run
// synchronously, inline with Feed/Finish, in the same goroutine that called
// them — there is no internal buffering or async dispatch.
type Callbacks struct {
	// StartRule fires immediately after an RTN frame is pushed, before any
	// input belonging to that rule is consumed.
	StartRule func(s *ParseState)

	// EndRule fires immediately before an RTN frame is popped.
	EndRule func(s *ParseState)

	// Terminal fires when a terminal is accepted by an RTN transition, after
	// the transition has been recorded but before the RTN state advances.
	Terminal func(s *ParseState, term Terminal)

	// ErrorChar fires when a byte could not be consumed by any IntFA
	// transition, including after longest-match recovery was attempted.
	ErrorChar func(s *ParseState, b byte)

	// ErrorTerminal fires when a terminal could not be consumed by any RTN
	// or GLA transition out of the current frame.
	ErrorTerminal func(s *ParseState, term Terminal)
}
