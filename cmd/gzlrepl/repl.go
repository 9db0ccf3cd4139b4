package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	shellquote "github.com/kballard/go-shellquote"

	"github.com/sablefin/parsevm/engine"
	"github.com/sablefin/parsevm/grammar"
	"github.com/sablefin/parsevm/loader"
	"github.com/sablefin/parsevm/stream"
	"github.com/sablefin/parsevm/trace"
)

// repl holds the interactive shell's state: the currently loaded grammar
// (if any) and the readline instance used for interactive command input,
// following internal/input.go's InteractiveCommandReader split between
// readline setup/teardown and line-at-a-time reading.
type repl struct {
	grammarPath string
	grammar     *grammar.Grammar
	wrapCols    int

	rl *readline.Instance
}

func newREPL(wrapCols int) *repl {
	return &repl{wrapCols: wrapCols}
}

func (r *repl) loadGrammar(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read grammar: %w", err)
	}
	g, err := loader.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode grammar: %w", err)
	}
	r.grammarPath = path
	r.grammar = g
	return nil
}

// parseFile drives the stream.Driver over path's contents and prints the
// resulting callback trace.
func (r *repl) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	rec := trace.NewRecorder()
	ps := engine.NewParseState(r.grammar, rec.Callbacks(), 0, 0)

	drv := stream.NewDriver(0)
	status, parseErr := drv.Run(context.Background(), f, ps)

	fmt.Println(trace.Format(rec.Events, r.wrapCols))
	fmt.Printf("-- status: %s\n", status)
	if parseErr != nil {
		return parseErr
	}
	return nil
}

// parseLine drives a single line of interactive input (plus its trailing
// newline, standing in for the file a real grammar would otherwise see)
// through a fresh ParseState and prints the trace. Each line starts a new
// parse from the grammar's start rule: the REPL is for exercising a
// grammar's terminals and rules interactively, not for accumulating one
// long parse across many readline prompts.
func (r *repl) parseLine(line string) error {
	rec := trace.NewRecorder()
	ps := engine.NewParseState(r.grammar, rec.Callbacks(), 0, 0)

	status, feedErr := ps.Feed([]byte(line))
	if status == engine.StatusOK {
		if !ps.Finish() {
			status = engine.StatusError
		}
	}

	fmt.Println(trace.Format(rec.Events, r.wrapCols))
	fmt.Printf("-- status: %s\n", status)
	return feedErr
}

func (r *repl) run() error {
	rl, err := readline.NewEx(&readline.Config{Prompt: r.prompt()})
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	r.rl = rl
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if !r.runMeta(line) {
				return nil
			}
			continue
		}

		if r.grammar == nil {
			fmt.Fprintln(os.Stderr, "no grammar loaded; use :load FILE")
			continue
		}
		if err := r.parseLine(line); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		}
	}
}

// runMeta handles one ":"-prefixed meta-command, splitting its arguments
// with shellquote the same way a POSIX shell would (honoring quoted paths
// with spaces). It returns false when the REPL should exit.
func (r *repl) runMeta(line string) bool {
	words, err := shellquote.Split(line[1:])
	if err != nil || len(words) == 0 {
		fmt.Fprintf(os.Stderr, "malformed meta-command: %q\n", line)
		return true
	}

	switch words[0] {
	case "quit", "exit":
		return false
	case "load":
		if len(words) != 2 {
			fmt.Fprintln(os.Stderr, "usage: :load GRAMMAR_FILE")
			return true
		}
		if err := r.loadGrammar(words[1]); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			return true
		}
		r.rl.SetPrompt(r.prompt())
		fmt.Printf("loaded %s\n", words[1])
	case "parse":
		if len(words) != 2 {
			fmt.Fprintln(os.Stderr, "usage: :parse INPUT_FILE")
			return true
		}
		if r.grammar == nil {
			fmt.Fprintln(os.Stderr, "no grammar loaded; use :load FILE")
			return true
		}
		if err := r.parseFile(words[1]); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown meta-command %q\n", words[0])
	}
	return true
}

func (r *repl) prompt() string {
	if r.grammarPath == "" {
		return "gzl> "
	}
	return fmt.Sprintf("gzl[%s]> ", r.grammarPath)
}
