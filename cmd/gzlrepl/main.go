/*
Gzlrepl drives a compiled grammar against an input file, or interactively
against commands typed at a prompt, and prints the resulting callback trace.

Usage:

	gzlrepl [flags]
	gzlrepl [flags] -g GRAMMAR -i INPUT

Once started with no --input, gzlrepl drops into an interactive shell.
Lines beginning with ":" are meta-commands (":load GRAMMAR", ":parse FILE",
":quit"); anything else is fed to whatever grammar is currently loaded, one
line at a time, and the resulting trace is printed immediately after.

The flags are:

	-v, --version
		Print the version and exit.

	-g, --grammar FILE
		Load the compiled grammar container at FILE at startup.

	-i, --input FILE
		Parse FILE against the loaded grammar and exit, instead of starting
		the interactive shell. Requires --grammar.

	-w, --width COLUMNS
		Wrap trace output to COLUMNS columns. 0 disables wrapping. Defaults
		to 100.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const version = "0.1.0"

const (
	ExitSuccess = iota
	ExitInitError
	ExitParseError
)

var (
	flagVersion  = pflag.BoolP("version", "v", false, "Print the version and exit")
	flagGrammar  = pflag.StringP("grammar", "g", "", "Load the compiled grammar container at FILE at startup")
	flagInput    = pflag.StringP("input", "i", "", "Parse FILE and exit, instead of starting the interactive shell")
	flagWrapCols = pflag.IntP("width", "w", 100, "Wrap trace output to this many columns; 0 disables wrapping")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("gzlrepl %s\n", version)
		return
	}

	repl := newREPL(*flagWrapCols)

	if *flagGrammar != "" {
		if err := repl.loadGrammar(*flagGrammar); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(ExitInitError)
		}
	}

	if *flagInput != "" {
		if repl.grammar == nil {
			fmt.Fprintln(os.Stderr, "ERROR: --input requires --grammar")
			os.Exit(ExitInitError)
		}
		if err := repl.parseFile(*flagInput); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(ExitParseError)
		}
		return
	}

	if err := repl.run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(ExitParseError)
	}
}
