// Package trace formats a parse's callback deliveries into a human-readable
// report. It is the one place outside the engine that inspects a
// ParseState's current rule via CurrentRuleName/CurrentRuleSpan (spec §6:
// "the current rule name is accessible via the top RTN frame's RTN name").
// Grounded in internal/game/state.go's rosed.Edit(...).Wrap(width).String()
// pattern for wrapping diagnostic text to a terminal-friendly width.
package trace

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/sablefin/parsevm/engine"
	"github.com/sablefin/parsevm/stack"
)

// Event is one callback delivery, captured with enough context to render a
// report line without re-deriving it from a live ParseState afterward.
type Event struct {
	Kind     string // start_rule | terminal | end_rule | error_char | error_terminal
	Rule     string
	Terminal string
	Offset   stack.Offset
	Detail   string
}

// Recorder accumulates Events as a ParseState runs. Give its Callbacks to
// engine.NewParseState; read Events back once the parse (or a Feed call)
// returns.
type Recorder struct {
	Events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Callbacks returns the engine.Callbacks that append to this Recorder.
func (r *Recorder) Callbacks() engine.Callbacks {
	return engine.Callbacks{
		StartRule: func(s *engine.ParseState) {
			rule, _ := s.CurrentRuleName()
			r.Events = append(r.Events, Event{Kind: "start_rule", Rule: rule, Offset: s.Offset})
		},
		EndRule: func(s *engine.ParseState) {
			rule, _ := s.CurrentRuleName()
			r.Events = append(r.Events, Event{Kind: "end_rule", Rule: rule, Offset: s.Offset})
		},
		Terminal: func(s *engine.ParseState, term engine.Terminal) {
			rule, _ := s.CurrentRuleName()
			r.Events = append(r.Events, Event{
				Kind: "terminal", Rule: rule,
				Terminal: s.Grammar.Names.Text(term.Name),
				Offset:   term.Offset,
			})
		},
		ErrorChar: func(s *engine.ParseState, b byte) {
			r.Events = append(r.Events, Event{
				Kind: "error_char", Offset: s.Offset, Detail: fmt.Sprintf("0x%02x", b),
			})
		},
		ErrorTerminal: func(s *engine.ParseState, term engine.Terminal) {
			r.Events = append(r.Events, Event{
				Kind: "error_terminal", Terminal: s.Grammar.Names.Text(term.Name), Offset: term.Offset,
			})
		},
	}
}

// Reset discards all recorded Events, so the same Recorder can be reused
// across Duplicate'd ParseStates without their traces intermixing.
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}

func (e Event) line() string {
	switch e.Kind {
	case "start_rule":
		return fmt.Sprintf("%s  + %s", e.Offset, e.Rule)
	case "end_rule":
		return fmt.Sprintf("%s  - %s", e.Offset, e.Rule)
	case "terminal":
		return fmt.Sprintf("%s    %s (in %s)", e.Offset, e.Terminal, e.Rule)
	case "error_char":
		return fmt.Sprintf("%s  ! lex error: %s", e.Offset, e.Detail)
	case "error_terminal":
		return fmt.Sprintf("%s  ! syntax error: unexpected %s", e.Offset, e.Terminal)
	default:
		return fmt.Sprintf("%s  ? %s", e.Offset, e.Kind)
	}
}

// Format renders events as a word-wrapped, one-line-per-event report no
// wider than width columns. An indented rule body (start_rule/terminal/
// end_rule lines, one level per nesting depth) makes the RTN call stack
// visible at a glance; width <= 0 disables wrapping.
func Format(events []Event, width int) string {
	depth := 0
	var lines []string
	for _, e := range events {
		if e.Kind == "end_rule" && depth > 0 {
			depth--
		}
		indent := strings.Repeat("  ", depth)
		lines = append(lines, indent+e.line())
		if e.Kind == "start_rule" {
			depth++
		}
	}

	out := strings.Join(lines, "\n")
	if width <= 0 {
		return out
	}
	return rosed.Edit(out).Wrap(width).String()
}
