// Package namespace implements the namespace builder utilities standard
// library builders use at startup: they mutate an execution's locals (or
// any plain thing) to include named bindings, typically call-pattern or
// oneshot aliens wrapping native Go functions.
package namespace

import (
	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

// Builder accumulates named entries into a members list under a given
// interned symbol table, pushing each as a tagged child pair.
type Builder struct {
	table        *symbol.Table
	localsSymbol *object.Ref
	dest         *object.Ref
}

// New constructs a Builder that pushes pairs onto dest's members,
// interning names with table. localsSymbol is threaded through to every
// alien it constructs, since aliens must be stageable via the same stage
// receiver as executions.
func New(table *symbol.Table, localsSymbol, dest *object.Ref) *Builder {
	return &Builder{table: table, localsSymbol: localsSymbol, dest: dest}
}

func (b *Builder) push(name string, value *object.Ref) {
	sym := nuketype.New(b.table, name)
	locked := b.dest.Lock()
	locked.Meta().Members.PushPairToChild(sym, value)
	locked.BumpMetaVersion()
	locked.Unlock()
}

// AddFactory binds name to the result of calling factory, tagging the
// produced reference with name for diagnostics.
func (b *Builder) AddFactory(name string, factory func() *object.Ref) {
	value := factory()
	value.SetTag(name)
	b.push(name, value)
}

// AddCallPattern binds name to a fresh call-pattern alien collecting n
// arguments before invoking fn.
func (b *Builder) AddCallPattern(name string, n int, fn nuketype.CallPatternFunc) {
	value := nuketype.NewCallPattern(b.localsSymbol, n, fn)
	value.SetTag(name)
	b.push(name, value)
}

// AddOneshot binds name to a fresh oneshot alien.
func (b *Builder) AddOneshot(name string, fn nuketype.OneshotFunc) {
	value := nuketype.NewOneshot(b.localsSymbol, fn)
	value.SetTag(name)
	b.push(name, value)
}

// AddNamespace binds name to an already-built namespace object (a thing
// constructed by another Builder), for nesting namespaces within
// namespaces.
func (b *Builder) AddNamespace(name string, ns *object.Ref) {
	ns.SetTag(name)
	b.push(name, ns)
}
