// Package repl implements the line-editing front end for -interactive
// mode: a thin go-prompt loop that compiles each entered line into a tiny
// execution invoking one of the stdlib namespace's bindings (print,
// identity, eq), stages it on the machine's reactor, and drains the
// reactor to quiescence before prompting again.
//
// A full Nucleus-syntax reader stays out of scope; what's here is only
// the terminal I/O plus a minimal fixed command set that exercises the
// stdlib namespace end to end.
package repl

import (
	"fmt"
	"strings"

	prompt "github.com/joeycumines/go-prompt"

	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/reactor"
	"github.com/nucleus-run/nucleus/internal/script"
	"github.com/nucleus-run/nucleus/pkg/machine"
)

// command describes one stdlib binding the REPL knows how to invoke:
// whether it is a call-pattern alien (needing the push-self/combine
// priming step) and how many symbol arguments it expects.
type command struct {
	callPattern bool
	arity       int
}

var commands = map[string]command{
	"print":    {callPattern: false, arity: 1},
	"identity": {callPattern: true, arity: 1},
	"eq":       {callPattern: true, arity: 2},
}

// Run starts an interactive prompt against m. m must have been constructed
// with a single (serial) reactor — the REPL drives the reactor by hand,
// one Step at a time, so it can prompt again exactly when the reactor goes
// quiet; a parallel pool has no equivalent single-stepping contract.
func Run(m *machine.Machine) error {
	serial, ok := m.Reactor().(*reactor.Serial)
	if !ok {
		return fmt.Errorf("repl: interactive mode requires a single-reactor machine")
	}

	stdlib := m.Stdlib()
	if stdlib == nil {
		return fmt.Errorf("repl: interactive mode requires the stdlib namespace")
	}

	executor := func(line string) {
		if err := Eval(m, serial, stdlib, line); err != nil {
			fmt.Println(err)
		}
		for serial.Step() {
		}
	}

	p := prompt.New(
		executor,
		prompt.WithPrefix("nucleus> "),
		prompt.WithTitle("nucleus"),
	)
	p.Run()
	return nil
}

// Compile parses one line ("cmd arg0 arg1 ...") into a fresh, unstaged
// execution reference, per the comment on command above. Exported so
// cmd/nucleus can reuse the same tiny grammar for file-driven evaluation
// and specification-mode rule bodies, not just the interactive REPL.
//
// The compiled script always starts from the stdlib namespace as its
// initial "response" (so Push(cmd);Combine resolves cmd against it),
// then, for call-pattern bindings, primes the caller with a
// push-self/combine pair before supplying each argument — the alien
// collects its caller first, then n further responses as arguments.
func Compile(m *machine.Machine, line string) (*object.Ref, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}

	cmd, ok := commands[fields[0]]
	if !ok {
		return nil, fmt.Errorf("unknown command %q (try: print, identity, eq)", fields[0])
	}
	args := fields[1:]
	if len(args) != cmd.arity {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", fields[0], cmd.arity, len(args))
	}

	instrs := []script.Instruction{
		{Op: script.Push, Literal: m.Symbol(fields[0])},
		{Op: script.Combine},
	}
	if cmd.callPattern {
		instrs = append(instrs, script.Instruction{Op: script.PushSelf}, script.Instruction{Op: script.Combine})
	}
	for _, a := range args {
		instrs = append(instrs,
			script.Instruction{Op: script.Push, Literal: m.Symbol(a)},
			script.Instruction{Op: script.Combine},
		)
	}

	exec := m.NewExecution(script.New(instrs))
	exec.SetTag("repl-line")
	return exec, nil
}

// Eval compiles line with Compile and, on success, stages it on d with
// stdlib as its initial response. A blank line is a silent no-op.
func Eval(m *machine.Machine, d object.Dispatcher, stdlib *object.Ref, line string) error {
	exec, err := Compile(m, line)
	if err != nil {
		return err
	}
	if exec == nil {
		return nil
	}
	diagnostics.Default().Debug("repl: staging " + line)
	d.Stage(exec, stdlib)
	return nil
}
