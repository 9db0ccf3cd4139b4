package stream

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sablefin/parsevm/engine"
	"github.com/sablefin/parsevm/grammar"
)

// balancedParensGrammar mirrors engine/engine_test.go's grammar fixture: S
// -> ( S ) | epsilon, disambiguated by a one-token-lookahead GLA.
func balancedParensGrammar() *grammar.Grammar {
	b := grammar.NewBuilder()
	lparen := b.Names().Intern("LPAREN")
	rparen := b.Names().Intern("RPAREN")

	intfa := b.AddIntFA(grammar.IntFA{States: []grammar.IntFAState{
		{Final: grammar.NoName, Transitions: []grammar.ByteRange{
			{Low: '(', High: '(' + 1, Dest: 1},
			{Low: ')', High: ')' + 1, Dest: 2},
		}},
		{Final: lparen},
		{Final: rparen},
	}})

	gla := b.AddGLA(grammar.GLA{States: []grammar.GLAState{
		{IntFA: intfa, Transitions: map[grammar.Name]int{
			lparen:         1,
			rparen:         2,
			grammar.NoName: 2,
		}},
		{Final: true, TransitionOffset: 1},
		{Final: true, TransitionOffset: 0},
	}})

	b.AddRTN(grammar.RTN{
		Name: "S",
		States: []grammar.RTNState{
			{
				IsFinal:   true,
				Lookahead: grammar.HasGLA,
				GLA:       gla,
				Transitions: []grammar.RTNTransition{
					{Kind: grammar.Terminal, TermName: lparen, Dest: 1},
				},
			},
			{
				Lookahead: grammar.HasNeither,
				Transitions: []grammar.RTNTransition{
					{Kind: grammar.Nonterminal, Callee: 0, Dest: 2},
				},
			},
			{
				Lookahead: grammar.HasIntFA,
				IntFA:     intfa,
				Transitions: []grammar.RTNTransition{
					{Kind: grammar.Terminal, TermName: rparen, Dest: 3},
				},
			},
			{IsFinal: true, Lookahead: grammar.HasNeither},
		},
	})

	return b.Finish()
}

// identGrammar builds S -> IDENT, mirroring engine/engine_test.go's fixture
// of the same name: a single-terminal grammar whose start state is *not*
// final, so it rejects empty input instead of accepting it.
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

func Test_Driver_Run_CompletesOnValidInput(t *testing.T) {
	assert := assert.New(t)

	g := balancedParensGrammar()
	ps := engine.NewParseState(g, engine.Callbacks{}, 0, 0)

	d := NewDriver(0)
	status, err := d.Run(context.Background(), strings.NewReader("((()))"), ps)
	assert.NoError(err)
	assert.Equal(engine.StatusOK, status)
}

func Test_Driver_Run_PrematureEOFOnUnbalancedInput(t *testing.T) {
	assert := assert.New(t)

	g := balancedParensGrammar()
	ps := engine.NewParseState(g, engine.Callbacks{}, 0, 0)

	d := NewDriver(0)
	_, err := d.Run(context.Background(), strings.NewReader("((("), ps)
	assert.Error(err)
}

func Test_Driver_Run_AcrossMultipleSmallReads(t *testing.T) {
	assert := assert.New(t)

	g := balancedParensGrammar()
	ps := engine.NewParseState(g, engine.Callbacks{}, 0, 0)

	// A reader that dribbles out one byte per Read call exercises the
	// driver's buffer growth/shift/discard loop across many iterations
	// instead of completing in one pass.
	d := NewDriver(0)
	status, err := d.Run(context.Background(), &oneByteReader{data: []byte("(())")}, ps)
	assert.NoError(err)
	assert.Equal(engine.StatusOK, status)
}

// Test_Driver_Run_EmptyInputOnNullableGrammar exercises spec §8 scenario 1:
// empty input against a grammar whose start state is final must initialize
// the parse (firing start_rule/end_rule) and report OK, not short-circuit
// on a stack that was never started.
func Test_Driver_Run_EmptyInputOnNullableGrammar(t *testing.T) {
	assert := assert.New(t)

	g := balancedParensGrammar()
	var events []string
	ps := engine.NewParseState(g, engine.Callbacks{
		StartRule: func(*engine.ParseState) { events = append(events, "start") },
		EndRule:   func(*engine.ParseState) { events = append(events, "end") },
	}, 0, 0)

	d := NewDriver(0)
	status, err := d.Run(context.Background(), strings.NewReader(""), ps)
	assert.NoError(err)
	assert.Equal(engine.StatusOK, status)
	assert.Equal([]string{"start", "end"}, events)
}

// Test_Driver_Run_EmptyInputOnNonNullableGrammarIsPrematureEOF ensures empty
// input is rejected, not silently accepted, when the start rule requires at
// least one terminal.
func Test_Driver_Run_EmptyInputOnNonNullableGrammarIsPrematureEOF(t *testing.T) {
	assert := assert.New(t)

	g := identGrammar()
	ps := engine.NewParseState(g, engine.Callbacks{}, 0, 0)

	d := NewDriver(0)
	status, err := d.Run(context.Background(), strings.NewReader(""), ps)
	assert.Error(err)
	assert.Equal(engine.StatusPrematureEOF, status)
}

func Test_Driver_Run_RespectsMaxBufSize(t *testing.T) {
	assert := assert.New(t)

	g := balancedParensGrammar()
	ps := engine.NewParseState(g, engine.Callbacks{}, 0, 0)

	d := NewDriver(1) // far smaller than MinNewData; growth must fail
	_, err := d.Run(context.Background(), strings.NewReader("((()))"), ps)
	assert.ErrorIs(err, ErrResourceLimitExceeded)
}

// oneByteReader hands out its data one byte per Read call, returning io.EOF
// alongside the final byte, to exercise Driver.Run's buffer growth/shift
// loop across many small reads instead of completing in one pass.
type oneByteReader struct {
	data []byte
	pos  int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	if r.pos >= len(r.data) {
		return 1, io.EOF
	}
	return 1, nil
}
