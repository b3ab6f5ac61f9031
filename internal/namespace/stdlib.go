package namespace

import (
	"io"

	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

// Stdlib builds the small demonstration namespace consumed by the CLI
// host and the REPL: a console-style print binding plus two structural
// primitives any embedding host needs immediately, identity and eq.
//
// w is where `print` writes (normally the host's stdout); table and
// localsSymbol are threaded through exactly as every other namespace
// builder needs them.
func Stdlib(table *symbol.Table, localsSymbol *object.Ref, w io.Writer) *object.Ref {
	ns := object.NewThing()
	b := New(table, localsSymbol, ns)

	b.AddOneshot("print", printRoutine(w))
	b.AddCallPattern("identity", 1, identityRoutine)
	b.AddCallPattern("eq", 2, eqRoutine(table))

	return ns
}

// printRoutine writes a symbol response verbatim to w. A non-symbol
// response is a warning, not a crash.
func printRoutine(w io.Writer) nuketype.OneshotFunc {
	return func(d object.Dispatcher, self, response *object.Ref) {
		h := response.SymbolHandle()
		if h == nil {
			diagnostics.Default().Warn("stdlib.print", self.Tag(), "print: response is not a symbol")
			return
		}
		io.WriteString(w, h.String())
		io.WriteString(w, "\n")
	}
}

// identityRoutine is a call-pattern alien of arity 1 that stages its caller
// with its sole argument, unchanged. The simplest possible namespace entry,
// useful for tests and REPL smoke-checks alike.
func identityRoutine(d object.Dispatcher, caller *object.Ref, args []*object.Ref) {
	d.Stage(caller, args[0])
}

// eqRoutine compares two arguments, first by symbol identity, then by
// reference identity (the same two-step comparison LookupPair's key match
// uses), staging caller with the interned symbol "true" or "false".
func eqRoutine(table *symbol.Table) nuketype.CallPatternFunc {
	return func(d object.Dispatcher, caller *object.Ref, args []*object.Ref) {
		a, b := args[0], args[1]
		equal := object.EqAsSymbol(a, b) || a == b
		name := "false"
		if equal {
			name = "true"
		}
		d.Stage(caller, nuketype.New(table, name))
	}
}
