// Command nucleus is the reference CLI host for the evaluation engine: it
// accepts a single optional input file, flags controlling stall behavior,
// reactor count, specification mode, and an interactive mode, exiting 1
// on argument or parse failure and 0 otherwise.
//
// There is no source-text parser yet, so the "program" this host reads
// from a file or types interactively is the small fixed stdlib-invocation
// grammar implemented by internal/repl (print/identity/eq), not full
// Nucleus syntax. That still exercises the real core — machine, reactor,
// combine — end to end.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nucleus-run/nucleus/cmd/nucleus/internal/repl"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/reactor"
	"github.com/nucleus-run/nucleus/internal/rulebook"
	"github.com/nucleus-run/nucleus/pkg/machine"
)

func main() {
	app := &cli.App{
		Name:      "nucleus",
		Usage:     "run the Nucleus evaluation engine",
		ArgsUsage: "[input-file]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "reactors",
				Value: 1,
				Usage: "number of reactors to run (>=1; 1 is serial, >=2 is a parallel pool)",
			},
			&cli.BoolFlag{
				Name:  "auto-stop",
				Usage: "stop once the reactor goes quiet, instead of hanging indefinitely",
			},
			&cli.BoolFlag{
				Name:  "spec",
				Usage: "specification (rulebook) mode: each input line is a rule; implies -auto-stop",
			},
			&cli.BoolFlag{
				Name:  "interactive",
				Usage: "start an interactive prompt instead of running the input file to completion",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "nucleus:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("at most one input file may be given", 1)
	}

	n := c.Int("reactors")
	if n < 1 {
		return cli.Exit("-reactors must be >= 1", 1)
	}

	interactive := c.Bool("interactive")
	specMode := c.Bool("spec")
	autoStop := c.Bool("auto-stop") || specMode

	if interactive && n != 1 {
		return cli.Exit("-interactive requires -reactors=1", 1)
	}

	var filename string
	if c.NArg() == 1 {
		filename = c.Args().First()
	}

	m, err := machine.New(machine.WithReactorCount(n))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var lines []string
	if filename != "" {
		lines, err = readLines(filename)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	switch {
	case specMode:
		return runSpec(m, lines)
	case interactive:
		if err := runFileLines(m, lines); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return repl.Run(m)
	default:
		if err := runFileLines(m, lines); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return runToQuiescence(m, autoStop)
	}
}

func readLines(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return lines, nil
}

// runFileLines stages every line of the input file, in order, against m's
// reactor, without yet running it.
func runFileLines(m *machine.Machine, lines []string) error {
	stdlib := m.Stdlib()
	for _, line := range lines {
		if err := repl.Eval(m, m, stdlib, line); err != nil {
			return err
		}
	}
	return nil
}

// runToQuiescence runs m's reactor; if autoStop is set, a
// stall handler stops it the first time it goes quiet instead of letting
// it hang indefinitely.
func runToQuiescence(m *machine.Machine, autoStop bool) error {
	if autoStop {
		m.Reactor().OnStall(func(r reactor.Reactor) { r.Stop() })
	}
	m.Run()
	return nil
}

// runSpec drives m in specification (rulebook) mode: each
// input line becomes one trivially-bodied rule (there being no parser to
// compile a real pass/fail assertion language from text), registered on a
// rulebook.Suite, which itself prints the summary and stops the reactor on
// stall (these rules carry no eventually blocks, so that is the first
// stall) — so -auto-stop is redundant, but implied, under -spec.
func runSpec(m *machine.Machine, lines []string) error {
	serial, ok := m.Reactor().(*reactor.Serial)
	if !ok {
		return cli.Exit("-spec requires -reactors=1", 1)
	}

	suite := rulebook.NewSuite(func(s string) { fmt.Println(s) })

	for i, line := range lines {
		name := fmt.Sprintf("line-%d", i+1)
		suite.AddRule(name, ruleBody(m, line, suite, name), nil)
	}

	suite.Run(m, func(handler func()) {
		serial.OnStall(func(reactor.Reactor) { handler() })
	}, serial.Stop)

	serial.Run()
	return nil
}

// ruleBody compiles one specification-mode line into a rule body. There
// being no richer assertion language without a real parser, every line
// that compiles is reported to suite as Pass here, at compile time, before
// its body is ever staged or realized (the rule's body has no failure mode
// of its own); a line that fails to compile at all (e.g. an unknown
// command) is reported here as Fail and given an inert body instead.
func ruleBody(m *machine.Machine, line string, suite *rulebook.Suite, name string) *object.Ref {
	exec, err := repl.Compile(m, line)
	if err != nil {
		suite.SetResult(name, rulebook.Fail)
		return object.NewThing()
	}
	if exec == nil {
		exec = object.NewThing()
	}
	suite.SetResult(name, rulebook.Pass)
	return exec
}
