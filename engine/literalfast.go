package engine

import (
	"github.com/coregx/ahocorasick"

	"github.com/sablefin/parsevm/grammar"
)

// literalTarget is where consuming one fast-path literal lands an IntFA
// frame: the destination state reached by its last byte, and the terminal
// it recognizes there (NoName if the state is not itself final).
type literalTarget struct {
	destState int
	name      grammar.Name
}

// literalIndex is the Aho-Corasick fast path for one IntFA: consulted
// before the per-byte transition scan whenever a frame for that IntFA sits
// at its start state and enough lookahead is buffered to attempt a match.
// Built lazily, once per IntFA per Grammar, only for IntFAs that are a pure
// trie of fixed byte strings (the common case for keyword/punctuation
// terminals); an IntFA with any multi-byte range transition or a cycle
// falls back to the ordinary per-byte driver.
type literalIndex struct {
	automaton *ahocorasick.Automaton
	targets   map[string]literalTarget
}

// buildLiteralIndex attempts to compile fa into a literalIndex. It returns
// nil if fa is not a pure literal trie rooted at state 0: any transition
// covering more than one byte value, or any cycle back to an already-
// visited state, disqualifies it, since neither can be represented as a
// fixed Aho-Corasick pattern.
func buildLiteralIndex(fa *grammar.IntFA) *literalIndex {
	if len(fa.States) == 0 {
		return nil
	}

	type walkEntry struct {
		state int
		path  []byte
	}

	builder := ahocorasick.NewBuilder()
	targets := map[string]literalTarget{}
	visited := map[int]bool{0: true}
	stack := []walkEntry{{state: 0}}
	found := false

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		st := fa.States[e.state]
		for _, r := range st.Transitions {
			if r.High-r.Low != 1 {
				return nil
			}
			if visited[r.Dest] {
				return nil
			}
			visited[r.Dest] = true

			word := make([]byte, len(e.path)+1)
			copy(word, e.path)
			word[len(e.path)] = r.Low

			destSt := fa.States[r.Dest]
			if destSt.IsFinal() && len(destSt.Transitions) == 0 {
				builder.AddPattern(word)
				targets[string(word)] = literalTarget{destState: r.Dest, name: destSt.Final}
				found = true
			}

			stack = append(stack, walkEntry{state: r.Dest, path: word})
		}
	}

	if !found {
		return nil
	}

	automaton, err := builder.Build()
	if err != nil {
		return nil
	}

	return &literalIndex{automaton: automaton, targets: targets}
}
