package engine

// Status is the outcome of feeding bytes to a ParseState, mirroring the
// gzl_status values the interpreter can surface up to a driver.
type Status int

const (
	// StatusOK means the bytes fed so far were consumed and the parse may
	// continue; it carries no information about whether EOF would currently
	// be valid.
	StatusOK Status = iota

	// StatusError means a byte or terminal was rejected by every automaton
	// consulted for it. The accompanying error names what and where.
	StatusError

	// StatusHardEOF means the parse stack emptied: the grammar has fully
	// matched and no further input can be consumed by this ParseState.
	StatusHardEOF

	// StatusResourceLimitExceeded means MaxStackDepth or MaxLookahead was
	// hit before the parse could make progress.
	StatusResourceLimitExceeded

	// StatusPrematureEOF is returned only by the stream driver, when the
	// underlying byte source closed before Finish found a valid stopping
	// point.
	StatusPrematureEOF

	// StatusIOError is returned only by the stream driver, wrapping a read
	// error from the underlying byte source.
	StatusIOError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusHardEOF:
		return "HARD_EOF"
	case StatusResourceLimitExceeded:
		return "RESOURCE_LIMIT_EXCEEDED"
	case StatusPrematureEOF:
		return "PREMATURE_EOF_ERROR"
	case StatusIOError:
		return "IO_ERROR"
	default:
		return "?"
	}
}
