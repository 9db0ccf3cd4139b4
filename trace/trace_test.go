package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sablefin/parsevm/engine"
	"github.com/sablefin/parsevm/grammar"
)

// identGrammar builds S -> IDENT, mirroring engine/engine_test.go's fixture
// of the same name.
func identGrammar() *grammar.Grammar {
	b := grammar.NewBuilder()
	ident := b.Names().Intern("IDENT")

	intfa := b.AddIntFA(grammar.IntFA{States: []grammar.IntFAState{
		{Final: grammar.NoName, Transitions: []grammar.ByteRange{{Low: 'a', High: 'z' + 1, Dest: 1}}},
		{Final: ident, Transitions: []grammar.ByteRange{{Low: 'a', High: 'z' + 1, Dest: 1}}},
	}})

	b.AddRTN(grammar.RTN{
		Name: "S",
		States: []grammar.RTNState{
			{
				Lookahead: grammar.HasIntFA,
				IntFA:     intfa,
				Transitions: []grammar.RTNTransition{
					{Kind: grammar.Terminal, TermName: ident, Dest: 1},
				},
			},
			{IsFinal: true, Lookahead: grammar.HasNeither},
		},
	})

	return b.Finish()
}

func Test_Recorder_CapturesRuleAndTerminalNames(t *testing.T) {
	assert := assert.New(t)

	g := identGrammar()
	rec := NewRecorder()
	ps := engine.NewParseState(g, rec.Callbacks(), 0, 0)

	status, err := ps.Feed([]byte("abc"))
	assert.NoError(err)
	assert.Equal(engine.StatusOK, status)
	assert.True(ps.Finish())

	var kinds []string
	for _, ev := range rec.Events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal([]string{"start_rule", "terminal", "end_rule"}, kinds)

	for _, ev := range rec.Events {
		if ev.Kind == "start_rule" || ev.Kind == "end_rule" {
			assert.Equal("S", ev.Rule)
		}
		if ev.Kind == "terminal" {
			assert.Equal("IDENT", ev.Terminal)
			assert.Equal("S", ev.Rule)
		}
	}
}

func Test_Recorder_Reset(t *testing.T) {
	assert := assert.New(t)

	rec := NewRecorder()
	rec.Events = append(rec.Events, Event{Kind: "start_rule"})
	rec.Reset()
	assert.Empty(rec.Events)
}

func Test_Format_IndentsByRuleDepth(t *testing.T) {
	assert := assert.New(t)

	events := []Event{
		{Kind: "start_rule", Rule: "S"},
		{Kind: "start_rule", Rule: "S"},
		{Kind: "end_rule", Rule: "S"},
		{Kind: "end_rule", Rule: "S"},
	}

	out := Format(events, 0)
	lines := strings.Split(out, "\n")
	assert.Len(lines, 4)
	assert.False(strings.HasPrefix(lines[0], " "))
	assert.True(strings.HasPrefix(lines[1], "  "))
	assert.True(strings.HasPrefix(lines[2], "  "))
	assert.False(strings.HasPrefix(lines[3], " "))
}
